package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/interfaces"
)

// New builds the cache selected by cfg.Backend.
func New(ctx context.Context, cfg common.CacheConfig, logger *common.Logger) (interfaces.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisCache(ctx, cfg.Redis, logger)
	case "memory", "":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// GetJSON decodes the value under key into dest. Reports false on a miss.
// A value that no longer decodes is treated as a miss.
func GetJSON(ctx context.Context, c interfaces.Cache, key string, dest any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes value and stores it for ttl.
func SetJSON(ctx context.Context, c interfaces.Cache, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
