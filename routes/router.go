package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/controllers"
	"github.com/gopress/gopress/middleware"
	"github.com/gopress/gopress/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.OK(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	postController := controllers.NewPostController(db)
	categoryController := controllers.NewCategoryController(db)
	uploadController := controllers.NewUploadController()

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit())
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)
	auth.GET("/me", middleware.AuthRequired(db), authController.Me)
	auth.PUT("/profile", middleware.AuthRequired(db), authController.UpdateProfile)
	auth.PUT("/change-password", middleware.AuthRequired(db), authController.ChangePassword)
	auth.POST("/logout", middleware.AuthRequired(db), authController.Logout)
	auth.POST("/refresh-token", middleware.AuthRequired(db), authController.RefreshToken)

	posts := api.Group("/posts")
	posts.GET("", middleware.OptionalAuth(db), postController.List)
	posts.GET("/slug/:slug", middleware.OptionalAuth(db), postController.GetBySlug)
	posts.GET("/author/:authorId", middleware.OptionalAuth(db), postController.ListByAuthor)
	posts.GET("/:id", middleware.OptionalAuth(db), postController.Get)
	posts.POST("", middleware.AuthRequired(db), postController.Create)
	posts.PUT("/:id", middleware.AuthRequired(db), postController.Update)
	posts.DELETE("/:id", middleware.AuthRequired(db), postController.Delete)
	posts.POST("/:id/like", middleware.AuthRequired(db), postController.ToggleLike)
	posts.POST("/:id/comments", middleware.AuthRequired(db), postController.AddComment)

	api.DELETE("/comments/:commentId", middleware.AuthRequired(db), postController.DeleteComment)

	users := api.Group("/users")
	users.GET("", middleware.AuthRequired(db), middleware.AdminRequired(), userController.List)
	users.GET("/:id", middleware.OptionalAuth(db), userController.Get)
	users.GET("/:id/profile", userController.GetProfile)
	users.GET("/:id/posts", middleware.OptionalAuth(db), listUserPosts(postController))
	users.GET("/:id/stats", userController.Stats)
	users.PUT("/:id", middleware.AuthRequired(db), userController.Update)
	users.DELETE("/:id", middleware.AuthRequired(db), middleware.AdminRequired(), userController.Delete)

	categories := api.Group("/categories")
	categories.GET("", categoryController.List)
	categories.GET("/:slug", categoryController.GetBySlug)
	categories.POST("", middleware.AuthRequired(db), middleware.AdminRequired(), categoryController.Create)
	categories.PUT("/:id", middleware.AuthRequired(db), middleware.AdminRequired(), categoryController.Update)
	categories.DELETE("/:id", middleware.AuthRequired(db), middleware.AdminRequired(), categoryController.Delete)

	api.POST("/upload", middleware.AuthRequired(db), uploadController.Upload)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}

// listUserPosts reuses the author listing under the /users tree.
func listUserPosts(p *controllers.PostController) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Params = append(ctx.Params, gin.Param{Key: "authorId", Value: ctx.Param("id")})
		p.ListByAuthor(ctx)
	}
}
