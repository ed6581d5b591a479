package handlers

import (
	"net/http"

	"exchange-backoffice-api/internal/cache"
	"exchange-backoffice-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheHandler exposes inspection and maintenance of the shared cache.
type CacheHandler struct {
	cache  *cache.Cache
	events realtime.Publisher
	log    *zap.Logger
}

func NewCacheHandler(c *cache.Cache, events realtime.Publisher, logger *zap.Logger) *CacheHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHandler{cache: c, events: events, log: logger.Named("cache_admin")}
}

// GetStats handles GET /api/cache/stats
func (h *CacheHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

// Clear handles POST /api/cache/clear
func (h *CacheHandler) Clear(c *gin.Context) {
	removed := h.cache.Clear()
	h.log.Info("cache cleared", zap.Int("removed", removed))

	if h.events != nil {
		h.events.Publish(realtime.Event{Type: realtime.EventCacheCleared})
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared",
		"removed": removed,
	})
}

// ClearExpired handles POST /api/cache/clear-expired
func (h *CacheHandler) ClearExpired(c *gin.Context) {
	removed := h.cache.ClearExpired()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
