package queue

import (
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Boot selects the driver named by QUEUE_DRIVER: "memory" (default),
// "redis" (needs a connected cache) or "sync".
func Boot() {
	switch config.QueueDriver() {
	case "sync":
		SetSync(true)
	case "redis":
		if !cache.Enabled() {
			logger.Warn("queue: redis unavailable, using memory driver")
			SetDriver(NewMemoryDriver(1000))
			return
		}
		SetDriver(NewRedisDriver(cache.RDB))
	default:
		SetDriver(NewMemoryDriver(1000))
	}
}
