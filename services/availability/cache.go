package availability

import (
	"context"
	"encoding/json"
	"time"

	"tutorly/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const availabilityCachePrefix = "availability:"

// CachedSource keeps fetched availability in Redis for TTL.
// Cache failures are logged and fall through to Next.
type CachedSource struct {
	Next   Source
	Cache  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func (c *CachedSource) GetAvailability(ctx context.Context, providerID string) (models.ProviderAvailability, error) {
	key := availabilityCachePrefix + providerID

	if raw, err := c.Cache.Get(ctx, key).Bytes(); err == nil {
		var avail models.ProviderAvailability
		if err := json.Unmarshal(raw, &avail); err == nil {
			return avail, nil
		}
		c.Logger.Warn("discarding unreadable cached availability", zap.String("providerID", providerID))
	} else if err != redis.Nil {
		c.Logger.Error("availability cache read failed", zap.String("providerID", providerID), zap.Error(err))
	}

	avail, err := c.Next.GetAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(avail)
	if err != nil {
		return avail, nil
	}
	if err := c.Cache.Set(ctx, key, data, c.TTL).Err(); err != nil {
		c.Logger.Error("availability cache write failed", zap.String("providerID", providerID), zap.Error(err))
	}
	return avail, nil
}

// Invalidate drops the cached availability for a provider.
func (c *CachedSource) Invalidate(ctx context.Context, providerID string) error {
	return c.Cache.Del(ctx, availabilityCachePrefix+providerID).Err()
}
