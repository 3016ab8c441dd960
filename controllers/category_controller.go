package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// CategoryController manages the post taxonomy. Mutations are admin only at
// the routing layer.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// List returns all active categories ordered by sort order then name.
// Admins see inactive categories too when passing all=true.
func (c *CategoryController) List(ctx *gin.Context) {
	query := c.db.Model(&models.Category{})
	if ctx.Query("all") != "true" {
		query = query.Where("active = ?", true)
	}

	var categories []models.Category
	if err := query.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	utils.OK(ctx, gin.H{"categories": categories})
}

// GetBySlug returns one category.
func (c *CategoryController) GetBySlug(ctx *gin.Context) {
	var category models.Category
	if err := c.db.Where("slug = ?", ctx.Param("slug")).First(&category).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}
	utils.OK(ctx, gin.H{"category": category})
}

type categoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	ParentID    *uint  `json:"parent_id"`
	Active      *bool  `json:"active"`
	SortOrder   *int   `json:"sort_order"`
}

// Create adds a category with a slug derived from its name.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req categoryPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	name := utils.SanitizeString(req.Name)
	if name == "" {
		utils.Fail(ctx, utils.ValidationError("name cannot be empty"))
		return
	}
	if err := utils.EnsureUnique(c.db, &models.Category{}, "name", name, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}

	slug, err := utils.UniqueSlug(c.db, &models.Category{}, name, 0)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	if req.ParentID != nil {
		var parent models.Category
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil {
			utils.Fail(ctx, utils.StorageError(err, "parent category"))
			return
		}
	}

	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: utils.SanitizeString(req.Description),
		Color:       req.Color,
		Icon:        req.Icon,
		ParentID:    req.ParentID,
		Active:      true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	if err := c.db.Create(&category).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}
	utils.Created(ctx, gin.H{"category": category})
}

// Update mutates a category; a changed name regenerates the slug.
func (c *CategoryController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid category id"))
		return
	}

	var req categoryPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}

	if req.Name != "" {
		name := utils.SanitizeString(req.Name)
		if name != category.Name {
			if err := utils.EnsureUnique(c.db, &models.Category{}, "name", name, category.ID); err != nil {
				utils.Fail(ctx, err)
				return
			}
			slug, err := utils.UniqueSlug(c.db, &models.Category{}, name, category.ID)
			if err != nil {
				utils.Fail(ctx, utils.InternalError(err))
				return
			}
			category.Name = name
			category.Slug = slug
		}
	}
	if req.Description != "" {
		category.Description = utils.SanitizeString(req.Description)
	}
	if req.Color != "" {
		category.Color = req.Color
	}
	if req.Icon != "" {
		category.Icon = req.Icon
	}
	if req.ParentID != nil {
		var parent models.Category
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil {
			utils.Fail(ctx, utils.StorageError(err, "parent category"))
			return
		}
		category.ParentID = req.ParentID
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	if err := c.db.Save(&category).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}
	utils.OK(ctx, gin.H{"category": category})
}

// Delete removes an unused category. Categories still referenced by posts
// cannot be deleted.
func (c *CategoryController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsValidID(id) {
		utils.Fail(ctx, utils.ValidationError("invalid category id"))
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}

	var inUse int64
	if err := c.db.Model(&models.Post{}).Where("category_id = ?", category.ID).Count(&inUse).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	if inUse > 0 {
		utils.Fail(ctx, utils.ConflictError("category is referenced by existing posts"))
		return
	}
	if err := c.db.Delete(&category).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "category"))
		return
	}
	utils.OK(ctx, gin.H{"message": "category deleted"})
}
