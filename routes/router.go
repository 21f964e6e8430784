package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ripplefeed/ripple/config"
	"github.com/ripplefeed/ripple/controllers"
	"github.com/ripplefeed/ripple/middleware"
	"github.com/ripplefeed/ripple/repository"
	"github.com/ripplefeed/ripple/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *mongo.Database) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	ginLogPath := cfg.GinPath
	// Use application log level as reference
	gl, err := utils.NewRollingFileLogger(ginLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	postsRepo := repository.NewPosts(db)
	usersRepo := repository.NewUsers(db)
	viewsRepo := repository.NewPageViews(db)

	// Record PV after each request
	r.Use(middleware.PageViewRecorder(viewsRepo))

	r.Static("/static", "./static")

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(usersRepo)
	postController := controllers.NewPostController(postsRepo, usersRepo)
	commentController := controllers.NewCommentController(postsRepo, usersRepo)
	statsController := controllers.NewStatsController(postsRepo, usersRepo, viewsRepo)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public stats endpoints
	api.GET("/stats", statsController.GetStats)
	api.GET("/posts/:id/stats", middleware.RequireObjectID("id"), statsController.GetPostStats)
	// Public user profile and posts
	api.GET("/users/:id", middleware.RequireObjectID("id"), authController.GetUser)
	api.GET("/users/:id/posts", middleware.RequireObjectID("id"), postController.ListUserPosts)

	postsGroup := api.Group("/posts")
	postsGroup.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	postsGroup.POST("", postController.CreatePost)
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", middleware.RequireObjectID("id"), postController.GetPost)
	postsGroup.PUT("/:id", middleware.RequireObjectID("id"), postController.UpdatePost)
	postsGroup.DELETE("/:id", middleware.RequireObjectID("id"), postController.DeletePost)
	postsGroup.PUT("/like/:id", middleware.RequireObjectID("id"), postController.LikePost)
	postsGroup.PUT("/unlike/:id", middleware.RequireObjectID("id"), postController.UnlikePost)
	postsGroup.POST("/comment/:id", middleware.RequireObjectID("id"), commentController.CreateComment)
	postsGroup.PUT("/comment/:id/:cid", middleware.RequireObjectID("id", "cid"), commentController.UpdateComment)
	postsGroup.DELETE("/comment/:id/:cid", middleware.RequireObjectID("id", "cid"), commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		// API 未命中：返回 API 404 JSON
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		// 静态资源未命中：仍按 404 处理
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		// 其余路径（如 /post/<id>、/profile/<id>）回退到 SPA 入口
		ctx.Status(http.StatusOK)
		ctx.File("./static/index.html")
	})

	return r
}
