package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/middleware"
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// UserController manages user administration and public profiles.
type UserController struct {
	db *gorm.DB
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB) *UserController {
	return &UserController{db: db}
}

// List returns paginated users. Admin only, with optional search and
// role/active filters.
func (u *UserController) List(ctx *gin.Context) {
	page, limit, err := utils.ResolvePagination(ctx.Query("page"), ctx.Query("limit"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	query := u.db.Model(&models.User{})
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		search, err = utils.NormalizeSearchQuery(search)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", like, like)
	}
	if role := strings.TrimSpace(ctx.Query("role")); role != "" {
		if role != models.RoleUser && role != models.RoleAdmin {
			utils.Fail(ctx, utils.ValidationError("unknown role filter"))
			return
		}
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	var users []models.User
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.List(ctx, users, utils.NewPagination(page, limit, total))
}

// Get returns a user record: the full record for admins and the user
// themselves, the public projection for everyone else.
func (u *UserController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid user id"))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if actor != nil && (actor.IsAdmin() || actor.ID == user.ID) {
		utils.OK(ctx, gin.H{"user": user})
		return
	}
	utils.OK(ctx, gin.H{"user": user.Public()})
}

// GetProfile returns the public projection of a user.
func (u *UserController) GetProfile(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid user id"))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	utils.OK(ctx, gin.H{"user": user.Public()})
}

// Update mutates a user record. A user may edit their own profile fields;
// role and active status change only at an admin's hand, even on self.
func (u *UserController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid user id"))
		return
	}

	var req struct {
		Username  *string `json:"username"`
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
		Role      *string `json:"role"`
		Active    *bool   `json:"active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "user", middleware.ActionUpdate, user.ID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if (req.Role != nil || req.Active != nil) && !actor.IsAdmin() {
		utils.Fail(ctx, utils.AuthorizationError("only admins may change role or active status"))
		return
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if !utils.IsValidUsername(username) {
			utils.Fail(ctx, utils.ValidationError("username must be 3-30 characters of letters, digits, '_' or '-'"))
			return
		}
		if err := utils.EnsureUnique(u.db, &models.User{}, "username", username, user.ID); err != nil {
			utils.Fail(ctx, err)
			return
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !utils.IsValidEmail(email) {
			utils.Fail(ctx, utils.ValidationError("email address is invalid"))
			return
		}
		if err := utils.EnsureUnique(u.db, &models.User{}, "email", email, user.ID); err != nil {
			utils.Fail(ctx, err)
			return
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.Profile.FirstName = utils.SanitizeString(*req.FirstName)
	}
	if req.LastName != nil {
		user.Profile.LastName = utils.SanitizeString(*req.LastName)
	}
	if req.Bio != nil {
		user.Profile.Bio = utils.SanitizeString(*req.Bio)
	}
	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			utils.Fail(ctx, utils.ValidationError("unknown role"))
			return
		}
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := u.db.Save(&user).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}
	utils.OK(ctx, gin.H{"user": user})
}

// Delete removes a user and cascades to their posts in one transaction so a
// partial failure leaves both intact. Admin only; admins cannot delete
// their own account.
func (u *UserController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid user id"))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "user", middleware.ActionDelete, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}
	if actor.ID == user.ID {
		utils.Fail(ctx, utils.ValidationError("admins cannot delete their own account"))
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("author_id = ?", user.ID).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", user.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.OK(ctx, gin.H{"message": "user deleted"})
}

// Stats aggregates a user's authored output: post count, total views, and
// likes received.
func (u *UserController) Stats(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid user id"))
		return
	}

	var user models.User
	if err := u.db.First(&user, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "user"))
		return
	}

	var postCount int64
	if err := u.db.Model(&models.Post{}).
		Where("author_id = ? AND status = ?", user.ID, models.StatusPublished).
		Count(&postCount).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	var totalViews int64
	row := u.db.Model(&models.Post{}).
		Where("author_id = ? AND status = ?", user.ID, models.StatusPublished).
		Select("COALESCE(SUM(views), 0)").Row()
	if err := row.Scan(&totalViews); err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	var totalLikes int64
	if err := u.db.Model(&models.PostLike{}).
		Joins("JOIN posts ON posts.id = post_likes.post_id").
		Where("posts.author_id = ?", user.ID).
		Count(&totalLikes).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.OK(ctx, gin.H{"stats": gin.H{
		"user_id":     user.ID,
		"post_count":  postCount,
		"total_views": totalViews,
		"total_likes": totalLikes,
	}})
}
