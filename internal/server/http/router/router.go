package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/withdrawals/internal/server/http/handlers"
	"github.com/polkiloo/withdrawals/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.Facade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	healthHandler := handlers.NewHealthHandler(facade)
	withdrawalHandler := handlers.NewWithdrawalHandler(facade)

	engine.GET("/healthz", healthHandler.Check)

	withdrawals := engine.Group("/withdrawals")
	withdrawals.Use(middleware.AuthRequired(facade))
	withdrawals.POST("", withdrawalHandler.Create)
	withdrawals.GET("", withdrawalHandler.List)
	withdrawals.GET("/:id", withdrawalHandler.Detail)
	withdrawals.POST("/:id/approve", withdrawalHandler.Approve)
	withdrawals.POST("/:id/reject", withdrawalHandler.Reject)
	withdrawals.POST("/:id/archive", withdrawalHandler.Archive)

	return engine
}
