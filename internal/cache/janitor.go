package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunJanitor calls ClearExpired every cleanup interval until ctx is done.
// Entries written once and never read again would otherwise linger until the
// next Set happens to trigger a sweep.
func (c *Cache) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("janitor stopped")
			return
		case <-ticker.C:
			if n := c.ClearExpired(); n > 0 {
				c.log.Info("janitor removed expired entries", zap.Int("removed", n))
			}
		}
	}
}
