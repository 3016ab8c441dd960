package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserKey  = "current_user"
	ContextTokenKey = "current_token"
)

// AuthRequired authenticates the request via a bearer JWT and resolves it to
// an existing, active user record. Every failure rejects with 401; an
// expired token gets its own message so clients can refresh instead of
// re-prompting for credentials.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, token, err := authenticate(db, ctx)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and proceeds
// as unauthenticated otherwise. Used by routes with public and
// enhanced-for-authenticated behavior.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, token, err := authenticate(db, ctx); err == nil {
			ctx.Set(ContextUserKey, user)
			ctx.Set(ContextTokenKey, token)
		}
		ctx.Next()
	}
}

// AdminRequired gates a route to admin callers. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			utils.Fail(ctx, utils.AuthenticationError("authentication required"))
			return
		}
		if !user.IsAdmin() {
			utils.Fail(ctx, utils.AuthorizationError("admin access required"))
			return
		}
		ctx.Next()
	}
}

func authenticate(db *gorm.DB, ctx *gin.Context) (*models.User, string, error) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "", utils.AuthenticationError("authorization header missing")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, "", utils.AuthenticationError("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, "", utils.AuthenticationError("empty bearer token")
	}

	if utils.IsTokenBlacklisted(token) {
		return nil, "", utils.AuthenticationError("token revoked")
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, "", utils.AuthenticationError("token expired")
		}
		return nil, "", utils.AuthenticationError("invalid token")
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", utils.AuthenticationError("user no longer exists")
		}
		return nil, "", utils.InternalError(err)
	}
	if !user.Active {
		return nil, "", utils.AuthenticationError("account is deactivated")
	}
	return &user, token, nil
}

// CurrentUser returns the authenticated user stored by AuthRequired or
// OptionalAuth, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// CurrentToken returns the raw bearer token of the authenticated request.
func CurrentToken(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(ContextTokenKey)
	if !exists {
		return "", false
	}
	token, ok := value.(string)
	return token, ok
}
