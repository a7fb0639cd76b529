package app

import (
	"strings"

	"github.com/yungbote/xapi-mis-backend/internal/clients/redis"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

type Clients struct {
	Cache redis.Cache
}

// wireClients connects to Redis when REDIS_ADDR is set. An unreachable
// Redis degrades to an uncached dashboard instead of failing startup.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Info("REDIS_ADDR not set; dashboard cache disabled")
		return Clients{Cache: redis.NewNoopCache()}
	}
	cache, err := redis.NewCache(log, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "xapi-mis:",
	})
	if err != nil {
		log.Warn("redis unavailable; dashboard cache disabled", "error", err)
		return Clients{Cache: redis.NewNoopCache()}
	}
	return Clients{Cache: cache}
}

func (c Clients) Close() error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}
