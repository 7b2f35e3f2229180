package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sannylab/minifeed/blob"
	"github.com/sannylab/minifeed/config"
	"github.com/sannylab/minifeed/controllers"
	"github.com/sannylab/minifeed/identity"
	"github.com/sannylab/minifeed/middleware"
	"github.com/sannylab/minifeed/store"
	"github.com/sannylab/minifeed/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(st store.PostStore, blobs blob.Store, cleaner *blob.Cleaner, resolver *identity.Resolver) *gin.Engine {
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
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
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

	// Locally stored images are served straight from disk.
	if cfg.StorageDriver == "local" {
		r.Static("/static/uploads", cfg.UploadDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	sessionController := controllers.NewSessionController(resolver)
	feedController := controllers.NewFeedController(st, blobs, cleaner, resolver)

	api := r.Group("/api/v1")
	api.POST("/session", sessionController.Open)

	// Every feed operation, reads included, requires an identified session:
	// an empty or absent name blocks the whole feed.
	feed := api.Group("")
	feed.Use(middleware.IdentityRequired())
	feed.GET("/posts", feedController.ListPosts)
	feed.GET("/posts/:id", feedController.GetPost)
	feed.POST("/posts", feedController.CreatePost)
	feed.POST("/posts/:id/like", feedController.LikePost)
	feed.DELETE("/posts/:id", feedController.DeletePost)
	feed.POST("/posts/:id/comments", feedController.CreateComment)
	feed.DELETE("/posts/:id/comments/:commentId", feedController.DeleteComment)
	feed.POST("/upload", feedController.UploadImage)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
