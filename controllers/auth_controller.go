package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/middleware"
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// AuthController handles registration, login, and session management.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a local account and returns its public profile plus a
// session token.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Bio       string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := map[string]string{}
	if !utils.IsValidUsername(req.Username) {
		fieldErrors["username"] = "username must be 3-30 characters of letters, digits, '_' or '-'"
	}
	if !utils.IsValidEmail(req.Email) {
		fieldErrors["email"] = "email address is invalid"
	}
	if !utils.IsStrongPassword(req.Password) {
		fieldErrors["password"] = "password must be at least 6 characters with upper and lower case letters and a digit"
	}
	if len(fieldErrors) > 0 {
		utils.Fail(ctx, utils.ValidationErrorWithDetails("registration payload is invalid", fieldErrors))
		return
	}

	if err := utils.EnsureUnique(a.db, &models.User{}, "username", req.Username, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if err := utils.EnsureUnique(a.db, &models.User{}, "email", req.Email, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
		Profile: models.Profile{
			FirstName: utils.SanitizeString(req.FirstName),
			LastName:  utils.SanitizeString(req.LastName),
			Bio:       utils.SanitizeString(req.Bio),
		},
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.Created(ctx, gin.H{"user": user.Public(), "token": token})
}

// Login authenticates by email and password. Unknown email and wrong
// password produce an identical 401 to prevent account enumeration.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !utils.IsValidEmail(req.Email) {
		utils.Fail(ctx, utils.ValidationError("email address is invalid"))
		return
	}
	if req.Password == "" {
		utils.Fail(ctx, utils.ValidationError("password is required"))
		return
	}

	var user models.User
	err := a.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Fail(ctx, utils.AuthenticationError("invalid email or password"))
		return
	}
	if !user.Active {
		utils.Fail(ctx, utils.AuthenticationError("account is deactivated"))
		return
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.OK(ctx, gin.H{"user": user.Public(), "token": token})
}

// Me returns the authenticated user's own record.
func (a *AuthController) Me(ctx *gin.Context) {
	user, _ := middleware.CurrentUser(ctx)
	utils.OK(ctx, gin.H{"user": user})
}

// UpdateProfile mutates the caller's embedded profile fields.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	user, _ := middleware.CurrentUser(ctx)
	if req.FirstName != nil {
		user.Profile.FirstName = utils.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.Profile.LastName = utils.SanitizeString(*req.LastName)
	}
	if req.Bio != nil {
		user.Profile.Bio = utils.SanitizeString(*req.Bio)
	}

	if err := a.db.Save(user).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	utils.OK(ctx, gin.H{"user": user})
}

// ChangePassword verifies the current password and replaces it.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	user, _ := middleware.CurrentUser(ctx)
	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		utils.Fail(ctx, utils.AuthenticationError("current password is incorrect"))
		return
	}
	if !utils.IsStrongPassword(req.NewPassword) {
		utils.Fail(ctx, utils.ValidationError("password must be at least 6 characters with upper and lower case letters and a digit"))
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	if err := a.db.Model(user).Update("password_hash", hash).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	utils.OK(ctx, gin.H{"message": "password updated"})
}

// Logout revokes the presented session token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, ok := middleware.CurrentToken(ctx); ok {
		if expiry, hasExpiry := utils.TokenExpiry(token); hasExpiry {
			utils.BlacklistToken(token, expiry)
		}
	}
	utils.OK(ctx, gin.H{"message": "logged out"})
}

// RefreshToken is a placeholder; clients re-login when their token expires.
func (a *AuthController) RefreshToken(ctx *gin.Context) {
	utils.OK(ctx, gin.H{"message": "token refresh is not implemented; tokens are long-lived"})
}

// ForgotPassword issues a one-time reset token and mails it. The response is
// identical whether or not the email exists.
func (a *AuthController) ForgotPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || !utils.IsValidEmail(strings.TrimSpace(req.Email)) {
		utils.Fail(ctx, utils.ValidationError("email address is invalid"))
		return
	}
	email := strings.TrimSpace(req.Email)

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err == nil && user.Active {
		plain, hash, err := utils.GenerateOneTimeToken()
		if err == nil {
			cfg := config.Get()
			ttl := time.Duration(cfg.ResetTokenTTLMinutes) * time.Minute
			utils.SaveOneTimeToken(utils.PurposePasswordReset, email, hash, ttl)
			body := fmt.Sprintf(
				"A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in %d minutes. Ignore this mail if you did not request it.",
				plain, cfg.ResetTokenTTLMinutes,
			)
			go func() {
				if err := utils.SendMail(email, "Password reset", body); err != nil && utils.Sugar != nil {
					utils.Sugar.Warnf("reset mail to %s failed: %v", email, err)
				}
			}()
		}
	}

	utils.OK(ctx, gin.H{"message": "if the email exists, a reset token has been sent"})
}

// ResetPassword consumes a one-time token and sets a new password.
func (a *AuthController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if !utils.IsValidEmail(email) || req.Token == "" {
		utils.Fail(ctx, utils.ValidationError("email and token are required"))
		return
	}
	if !utils.IsStrongPassword(req.Password) {
		utils.Fail(ctx, utils.ValidationError("password must be at least 6 characters with upper and lower case letters and a digit"))
		return
	}

	if !utils.VerifyAndConsumeOneTimeToken(utils.PurposePasswordReset, email, req.Token) {
		utils.Fail(ctx, utils.AuthenticationError("reset token is invalid or expired"))
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	if err := a.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	utils.OK(ctx, gin.H{"message": "password has been reset"})
}
