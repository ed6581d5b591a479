package routes

import (
	"net/http"

	"exchange-backoffice-api/internal/cache"
	"exchange-backoffice-api/internal/handlers"
	"exchange-backoffice-api/internal/middleware"
	"exchange-backoffice-api/internal/realtime"
	"exchange-backoffice-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the long-lived components the router hands to handlers.
type Dependencies struct {
	Backoffice *service.Backoffice
	Cache      *cache.Cache
	Hub        *realtime.Hub
	Logger     *zap.Logger
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"message":       "Exchange back-office API is running",
			"cache_entries": deps.Cache.Len(),
		})
	})

	h := handlers.New(deps.Backoffice, logger)
	ch := handlers.NewCacheHandler(deps.Cache, deps.Hub, logger)

	api := ginRouter.Group("/api")
	{
		api.GET("/clients", h.GetClients)
		api.GET("/clients/:id", h.GetClientByID)
		api.POST("/clients", h.CreateClient)

		api.GET("/movements", h.GetMovements)
		api.POST("/movements", h.CreateMovement)
	}

	cacheAdmin := api.Group("/cache")
	{
		cacheAdmin.GET("/stats", ch.GetStats)
		cacheAdmin.POST("/clear", ch.Clear)
		cacheAdmin.POST("/clear-expired", ch.ClearExpired)
	}

	ginRouter.GET("/ws", handlers.WebSocketHandler(deps.Hub, logger))

	return ginRouter
}
