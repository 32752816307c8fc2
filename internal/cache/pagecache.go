package cache

import (
	"context"
	"time"

	"github.com/doroshenkokb/mini-social-network/internal/config"
	"github.com/doroshenkokb/mini-social-network/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fibercache "github.com/gofiber/fiber/v2/middleware/cache"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	DefaultTTL = 300 * time.Second

	// HeaderCache reports hit, miss or unreachable on cached routes.
	HeaderCache = "X-Cache"
)

// Store is the storage contract fiber's cache middleware writes through.
type Store = fiber.Storage

type contextResetter interface {
	ResetContext(ctx context.Context) error
}

// PageCache keeps fully rendered responses for a fixed window. Entries are
// never patched: Clear drops everything and the next request re-renders.
type PageCache struct {
	store   Store
	ttl     time.Duration
	backend string
}

func New(store Store, ttl time.Duration, backend string) *PageCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PageCache{store: store, ttl: ttl, backend: backend}
}

func NewMemory(ttl time.Duration) *PageCache {
	return New(NewMemoryStore(), ttl, BackendMemory)
}

// FromConfig picks the configured backend. An unreachable Redis falls back
// to the in-process store so the site keeps serving.
func FromConfig(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig) *PageCache {
	if cfg.Backend != BackendRedis {
		return NewMemory(cfg.TTL)
	}

	client, err := DialRedis(ctx, redisCfg)
	if err != nil {
		logger.Warn("page_cache_redis_unavailable", map[string]interface{}{
			"addr":     redisCfg.Addr,
			"error":    err.Error(),
			"fallback": BackendMemory,
		})
		return NewMemory(cfg.TTL)
	}

	logger.Info("page_cache_redis_connected", map[string]interface{}{
		"addr":   redisCfg.Addr,
		"prefix": redisCfg.KeyPrefix,
	})
	return New(NewRedisStore(client, redisCfg.KeyPrefix), cfg.TTL, BackendRedis)
}

func DialRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (p *PageCache) Backend() string    { return p.backend }
func (p *PageCache) TTL() time.Duration { return p.ttl }

// Middleware caches GET responses of the route it is mounted on.
func (p *PageCache) Middleware() fiber.Handler {
	return fibercache.New(fibercache.Config{
		Expiration:   p.ttl,
		Storage:      p.store,
		CacheHeader:  HeaderCache,
		KeyGenerator: Key,
	})
}

// Key is the rendered route plus who it was rendered for, since pages carry
// the viewer's name and links.
func Key(c *fiber.Ctx) string {
	viewer := "anonymous"
	if id := logger.GetUserIDFromContext(c); id != nil {
		viewer = "user:" + *id
	}
	return c.OriginalURL() + "|" + viewer
}

func (p *PageCache) Clear(ctx context.Context) error {
	var err error
	if r, ok := p.store.(contextResetter); ok {
		err = r.ResetContext(ctx)
	} else {
		err = p.store.Reset()
	}
	if err != nil {
		logger.Error("page_cache_clear_failed", err, map[string]interface{}{
			"backend": p.backend,
		})
		return err
	}

	logger.Info("page_cache_cleared", map[string]interface{}{
		"backend": p.backend,
	})
	return nil
}

func (p *PageCache) Close() error {
	return p.store.Close()
}
