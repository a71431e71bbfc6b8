package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/DustGalaxy/dZENcode-Test-Task/config"
	"github.com/DustGalaxy/dZENcode-Test-Task/controllers"
	"github.com/DustGalaxy/dZENcode-Test-Task/middleware"
	"github.com/DustGalaxy/dZENcode-Test-Task/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(commentController *controllers.CommentController, wsController *controllers.WSController) *gin.Engine {
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

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	commentsGroup := api.Group("/comments")
	commentsGroup.GET("", commentController.ListComments)
	commentsGroup.GET("/preview", commentController.PreviewComments)
	commentsGroup.GET("/:id", commentController.GetComment)
	commentsGroup.GET("/:id/replies", commentController.ListReplies)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)
	protected.POST("/upload", commentController.UploadAttachment)

	// Realtime subscriptions authenticate at the transport level (browser
	// websockets cannot set an Authorization header).
	r.GET("/ws/comments/:id", wsController.Subscribe)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
