package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/whoabuu/task-manager/internal/auth"
	"github.com/whoabuu/task-manager/internal/config"
	"github.com/whoabuu/task-manager/internal/logutil"
	"github.com/whoabuu/task-manager/internal/store"
	"github.com/whoabuu/task-manager/internal/tasks"
)

// newRouter はミドルウェアとルーティングを設定した Gin エンジンを返します。
func newRouter(cfg *config.Config, st store.Store, limiter auth.AttemptLimiter, logger zerolog.Logger) (*gin.Engine, error) {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logutil.Middleware(logger))

	// CORSミドルウェアの設定（クッキーを送るため credentials を許可）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		logutil.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logutil.RequestIDHeader, "Retry-After"}
	router.Use(cors.New(corsConfig))

	if err := setupRoutes(router, cfg, st, limiter); err != nil {
		return nil, err
	}
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "task-manager-api",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, st store.Store, limiter auth.AttemptLimiter) error {
	router.GET("/health", handleHealth)

	credentials, err := auth.NewCredentials(st, cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.SecureCookies())
	authManager, err := auth.NewManager(credentials, tokens, limiter)
	if err != nil {
		return err
	}

	taskService, err := tasks.NewService(st)
	if err != nil {
		return err
	}

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authManager.Register())
			authRoutes.POST("/login", authManager.Login())
			authRoutes.POST("/logout", authManager.Logout())
			authRoutes.GET("/me", authManager.RequireLogin(), authManager.Me())
		}

		taskRoutes := api.Group("/tasks")
		taskRoutes.Use(authManager.RequireLogin())
		{
			taskRoutes.GET("", tasks.ListHandler(taskService))
			taskRoutes.POST("", tasks.CreateHandler(taskService))
			taskRoutes.PUT("/:id", tasks.UpdateHandler(taskService))
			taskRoutes.DELETE("/:id", tasks.DeleteHandler(taskService))
		}
	}
	return nil
}
