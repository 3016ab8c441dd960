package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/middleware"
	"github.com/gopress/gopress/models"
	"github.com/gopress/gopress/utils"
)

// PostController manages CRUD operations for posts, comments, and likes.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

const maxCommentLength = 1000

// commentCountSelect feeds Post.CommentCount on list reads without loading
// the comment rows.
const commentCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

var listSortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"views":      "views",
	"title":      "title",
}

// List returns paginated posts with filtering, search, and sorting. Drafts
// are invisible by default: requesting a non-published status is forbidden
// for anonymous callers and limited to the caller's own posts unless admin.
func (p *PostController) List(ctx *gin.Context) {
	page, limit, err := utils.ResolvePagination(ctx.Query("page"), ctx.Query("limit"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	actor, _ := middleware.CurrentUser(ctx)

	status := strings.TrimSpace(ctx.Query("status"))
	if status == "" {
		status = models.StatusPublished
	}
	if !models.ValidStatus(status) {
		utils.Fail(ctx, utils.ValidationError("unknown status filter"))
		return
	}

	query := p.db.Model(&models.Post{}).Where("status = ?", status)
	if status != models.StatusPublished {
		if actor == nil {
			utils.Fail(ctx, utils.AuthorizationError("authentication required to view unpublished posts"))
			return
		}
		if !actor.IsAdmin() {
			query = query.Where("author_id = ?", actor.ID)
		}
	}

	search := strings.TrimSpace(ctx.Query("search"))
	if search != "" {
		search, err = utils.NormalizeSearchQuery(search)
		if err != nil {
			utils.Fail(ctx, err)
			return
		}
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		if utils.IsValidID(category) {
			query = query.Where("category_id = ?", category)
		} else {
			query = query.Where("category_id IN (?)",
				p.db.Model(&models.Category{}).Select("id").Where("slug = ?", category))
		}
	}

	sortField, ok := listSortFields[strings.TrimSpace(ctx.DefaultQuery("sort", "created_at"))]
	if !ok {
		utils.Fail(ctx, utils.ValidationError("unknown sort field"))
		return
	}
	order := strings.ToLower(strings.TrimSpace(ctx.DefaultQuery("order", "desc")))
	if order != "asc" && order != "desc" {
		utils.Fail(ctx, utils.ValidationError("order must be asc or desc"))
		return
	}

	// Cache the anonymous published listing only; search terms and caller
	// specific visibility would explode the key space.
	cacheKey := ""
	if actor == nil && search == "" && status == models.StatusPublished {
		cacheKey = fmt.Sprintf("cache:posts:list:cat=%s:page=%d:limit=%d:sort=%s:order=%s",
			ctx.Query("category"), page, limit, sortField, order)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	var posts []models.Post
	err = query.
		Select(commentCountSelect).
		Preload("Author").Preload("Category").Preload("Likes").
		Order(fmt.Sprintf("%s %s", sortField, order)).
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	envelope := utils.ListResponse{Items: posts, Pagination: utils.NewPagination(page, limit, total)}
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, envelope, time.Hour)
	}
	utils.OK(ctx, envelope)
}

// Get returns a single post by id, incrementing the view counter of
// published posts as a side effect of the read.
func (p *PostController) Get(ctx *gin.Context) {
	p.getAndServe(ctx, "id = ?", ctx.Param("id"), true)
}

// GetBySlug returns a single post by slug with the same view semantics.
func (p *PostController) GetBySlug(ctx *gin.Context) {
	p.getAndServe(ctx, "slug = ?", ctx.Param("slug"), false)
}

func (p *PostController) getAndServe(ctx *gin.Context, cond, value string, byID bool) {
	if byID && !utils.IsValidID(value) {
		utils.Fail(ctx, utils.ValidationError("invalid post id"))
		return
	}

	var post models.Post
	err := p.db.
		Preload("Author").Preload("Category").Preload("Likes").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Author").
		Where(cond, value).First(&post).Error
	if err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if post.Status != models.StatusPublished {
		if err := middleware.Authorize(actor, "post", middleware.ActionUpdate, post.AuthorID); err != nil {
			// Hide the existence of unpublished posts from other users.
			utils.Fail(ctx, utils.NotFoundError("post"))
			return
		}
	} else {
		// Atomic increment; concurrent reads each count exactly once.
		if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err == nil {
			post.Views++
		}
	}

	utils.OK(ctx, gin.H{"post": post})
}

// ListByAuthor returns an author's posts, published only unless the caller
// is the author or an admin.
func (p *PostController) ListByAuthor(ctx *gin.Context) {
	authorID := ctx.Param("authorId")
	if !utils.IsValidID(authorID) {
		utils.Fail(ctx, utils.ValidationError("invalid author id"))
		return
	}
	page, limit, err := utils.ResolvePagination(ctx.Query("page"), ctx.Query("limit"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	query := p.db.Model(&models.Post{}).Where("author_id = ?", authorID)
	actor, _ := middleware.CurrentUser(ctx)
	if actor == nil || (!actor.IsAdmin() && fmt.Sprint(actor.ID) != authorID) {
		query = query.Where("status = ?", models.StatusPublished)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}
	var posts []models.Post
	err = query.
		Select(commentCountSelect).
		Preload("Author").Preload("Category").Preload("Likes").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.List(ctx, posts, utils.NewPagination(page, limit, total))
}

type postPayload struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	CategoryID uint     `json:"category_id"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags"`
	Featured   *bool    `json:"featured"`
}

// Create persists a new post with the caller as author. The referenced
// category must exist; the slug derives from the title.
func (p *PostController) Create(ctx *gin.Context) {
	var req postPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "post", middleware.ActionCreate, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}

	title := utils.SanitizeString(req.Title)
	if title == "" {
		utils.Fail(ctx, utils.ValidationError("title cannot be empty"))
		return
	}
	content := utils.SanitizeHTML(req.Content)
	if strings.TrimSpace(content) == "" {
		utils.Fail(ctx, utils.ValidationError("content cannot be empty"))
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !models.ValidStatus(status) {
		utils.Fail(ctx, utils.ValidationError("unknown status"))
		return
	}

	var category models.Category
	if err := p.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Fail(ctx, utils.NotFoundError("category"))
			return
		}
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	slug, err := utils.UniqueSlug(p.db, &models.Post{}, title, 0)
	if err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	post := models.Post{
		Title:      title,
		Content:    content,
		Slug:       slug,
		Status:     status,
		AuthorID:   actor.ID,
		CategoryID: category.ID,
	}
	post.SetTags(req.Tags)
	if req.Featured != nil {
		post.Featured = *req.Featured
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	p.db.Preload("Author").Preload("Category").First(&post, post.ID)
	utils.Created(ctx, gin.H{"post": post})
}

// Update mutates a post. Only the author or an admin may update; a changed
// title regenerates the slug.
func (p *PostController) Update(ctx *gin.Context) {
	postID := ctx.Param("id")
	if !utils.IsValidID(postID) {
		utils.Fail(ctx, utils.ValidationError("invalid post id"))
		return
	}

	var req struct {
		Title      *string  `json:"title"`
		Content    *string  `json:"content"`
		CategoryID *uint    `json:"category_id"`
		Status     *string  `json:"status"`
		Tags       []string `json:"tags"`
		Featured   *bool    `json:"featured"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "post", middleware.ActionUpdate, post.AuthorID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if req.Title != nil {
		title := utils.SanitizeString(*req.Title)
		if title == "" {
			utils.Fail(ctx, utils.ValidationError("title cannot be empty"))
			return
		}
		if title != post.Title {
			slug, err := utils.UniqueSlug(p.db, &models.Post{}, title, post.ID)
			if err != nil {
				utils.Fail(ctx, utils.InternalError(err))
				return
			}
			post.Slug = slug
		}
		post.Title = title
	}
	if req.Content != nil {
		content := utils.SanitizeHTML(*req.Content)
		if strings.TrimSpace(content) == "" {
			utils.Fail(ctx, utils.ValidationError("content cannot be empty"))
			return
		}
		post.Content = content
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			utils.Fail(ctx, utils.ValidationError("unknown status"))
			return
		}
		post.Status = *req.Status
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := p.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Fail(ctx, utils.NotFoundError("category"))
				return
			}
			utils.Fail(ctx, utils.InternalError(err))
			return
		}
		post.CategoryID = category.ID
	}
	if req.Tags != nil {
		post.SetTags(req.Tags)
	}
	if req.Featured != nil {
		post.Featured = *req.Featured
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	p.db.Preload("Author").Preload("Category").Preload("Likes").First(&post, post.ID)
	utils.OK(ctx, gin.H{"post": post})
}

// Delete removes a post. Only the author or an admin may delete.
func (p *PostController) Delete(ctx *gin.Context) {
	postID := ctx.Param("id")
	if !utils.IsValidID(postID) {
		utils.Fail(ctx, utils.ValidationError("invalid post id"))
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "post", middleware.ActionDelete, post.AuthorID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.OK(ctx, gin.H{"message": "post deleted"})
}

// ToggleLike adds the caller to the post's like set when absent and removes
// them otherwise. Double-toggling restores the original state.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	postID := ctx.Param("id")
	if !utils.IsValidID(postID) {
		utils.Fail(ctx, utils.ValidationError("invalid post id"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "post", middleware.ActionLike, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	liked := false
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var like models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", post.ID, actor.ID).First(&like).Error
		switch {
		case err == nil:
			return tx.Delete(&like).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			liked = true
			return tx.Create(&models.PostLike{PostID: post.ID, UserID: actor.ID}).Error
		default:
			return err
		}
	})
	if err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	var likeCount int64
	if err := p.db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeCount).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.OK(ctx, gin.H{"liked": liked, "like_count": likeCount})
}

// AddComment appends a comment with the caller as author.
func (p *PostController) AddComment(ctx *gin.Context) {
	postID := ctx.Param("id")
	if !utils.IsValidID(postID) {
		utils.Fail(ctx, utils.ValidationError("invalid post id"))
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, utils.ValidationError("invalid request payload"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "post", middleware.ActionComment, 0); err != nil {
		utils.Fail(ctx, err)
		return
	}

	content := utils.SanitizeString(req.Content)
	if content == "" {
		utils.Fail(ctx, utils.ValidationError("comment cannot be empty"))
		return
	}
	if len(content) > maxCommentLength {
		utils.Fail(ctx, utils.ValidationError(fmt.Sprintf("comment must be at most %d characters", maxCommentLength)))
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "post"))
		return
	}

	comment := models.Comment{
		PostID:    post.ID,
		AuthorID:  actor.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "comment"))
		return
	}

	if err := p.db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		utils.Fail(ctx, utils.InternalError(err))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.Created(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment, allowed to its author or an admin.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	commentID := ctx.Param("commentId")
	if !utils.IsValidID(commentID) {
		utils.Fail(ctx, utils.ValidationError("invalid comment id"))
		return
	}

	var comment models.Comment
	if err := p.db.First(&comment, commentID).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "comment"))
		return
	}

	actor, _ := middleware.CurrentUser(ctx)
	if err := middleware.Authorize(actor, "comment", middleware.ActionDelete, comment.AuthorID); err != nil {
		utils.Fail(ctx, err)
		return
	}

	if err := p.db.Delete(&comment).Error; err != nil {
		utils.Fail(ctx, utils.StorageError(err, "comment"))
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.OK(ctx, gin.H{"message": "comment deleted"})
}
