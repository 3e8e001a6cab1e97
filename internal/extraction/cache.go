package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/yungbote/skillbridge-backend/internal/data/repos"
	types "github.com/yungbote/skillbridge-backend/internal/domain"
	"github.com/yungbote/skillbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
)

const redisKeyPrefix = "skillbridge:ai_cache:"

// Cache stores decoded payloads by prompt cache key. Only well-formed payloads are put.
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Put(ctx context.Context, key, model string, payload any) error
	Invalidate(ctx context.Context, key string) error
}

type tieredCache struct {
	log  *logger.Logger
	rdb  *goredis.Client
	repo repos.AICacheRepo
	ttl  time.Duration
}

// NewCache reads Redis first and the ai_cache table second; a table hit warms Redis.
// rdb and repo may each be nil. ttl <= 0 keeps entries until invalidated.
func NewCache(log *logger.Logger, rdb *goredis.Client, repo repos.AICacheRepo, ttl time.Duration) Cache {
	return &tieredCache{log: log.With("component", "ExtractionCache"), rdb: rdb, repo: repo, ttl: ttl}
}

func (c *tieredCache) Get(ctx context.Context, key string, out any) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	if c.rdb != nil {
		b, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
		switch {
		case err == nil:
			if jerr := json.Unmarshal(b, out); jerr == nil {
				return true, nil
			}
			c.log.Warn("dropping unreadable redis cache entry", "cache_key", key)
			_ = c.rdb.Del(ctx, redisKeyPrefix+key).Err()
		case errors.Is(err, goredis.Nil):
		default:
			c.log.Warn("redis cache read failed", "cache_key", key, "error", err)
		}
	}
	if c.repo == nil {
		return false, nil
	}
	row, err := c.repo.Get(dbctx.New(ctx), key)
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if row == nil {
		return false, nil
	}
	if err := json.Unmarshal(row.Payload, out); err != nil {
		c.log.Warn("dropping unreadable cache row", "cache_key", key, "error", err)
		return false, nil
	}
	c.setRedis(ctx, key, row.Payload, row.ExpiresAt)
	return true, nil
}

func (c *tieredCache) Put(ctx context.Context, key, model string, payload any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key required")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cache put %s: encode: %w", key, err)
	}
	var expires *time.Time
	if c.ttl > 0 {
		t := time.Now().Add(c.ttl).UTC()
		expires = &t
	}
	if c.repo != nil {
		if err := c.repo.Put(dbctx.New(ctx), &types.AICacheEntry{
			CacheKey:  key,
			Model:     model,
			Payload:   datatypes.JSON(b),
			ExpiresAt: expires,
		}); err != nil {
			return fmt.Errorf("cache put %s: %w", key, err)
		}
	}
	c.setRedis(ctx, key, b, expires)
	return nil
}

func (c *tieredCache) Invalidate(ctx context.Context, key string) error {
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
			c.log.Warn("redis cache delete failed", "cache_key", key, "error", err)
		}
	}
	if c.repo == nil {
		return nil
	}
	return c.repo.Delete(dbctx.New(ctx), key)
}

func (c *tieredCache) setRedis(ctx context.Context, key string, b []byte, expires *time.Time) {
	if c.rdb == nil {
		return
	}
	var ttl time.Duration
	if expires != nil {
		ttl = time.Until(*expires)
		if ttl <= 0 {
			return
		}
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, b, ttl).Err(); err != nil {
		c.log.Warn("redis cache write failed", "cache_key", key, "error", err)
	}
}
