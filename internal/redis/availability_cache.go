package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-serial-booking/internal/availability"
	"github.com/hackgods/clinic-serial-booking/internal/schedule"
)

// Cached values: "default", "explicit:1", "explicit:0".
const (
	cachedDefault   = "default"
	cachedOpen      = "explicit:1"
	cachedClosed    = "explicit:0"
	availabilityKey = "availability:%s"
)

type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func (c *AvailabilityCache) key(day time.Time) string {
	return fmt.Sprintf(availabilityKey, schedule.DateKey(day))
}

func (c *AvailabilityCache) Get(ctx context.Context, day time.Time) (availability.Lookup, bool, error) {
	val, err := c.client.Get(ctx, c.key(day)).Result()
	if errors.Is(err, redis.Nil) {
		return availability.Lookup{}, false, nil
	}
	if err != nil {
		return availability.Lookup{}, false, fmt.Errorf("get cached availability: %w", err)
	}

	l, ok := decodeLookup(val)
	if !ok {
		return availability.Lookup{}, false, nil
	}
	return l, true, nil
}

func (c *AvailabilityCache) Put(ctx context.Context, day time.Time, l availability.Lookup) error {
	if err := c.client.Set(ctx, c.key(day), encodeLookup(l), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache availability: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, day time.Time) error {
	if err := c.client.Del(ctx, c.key(day)).Err(); err != nil {
		return fmt.Errorf("invalidate cached availability: %w", err)
	}
	return nil
}

func encodeLookup(l availability.Lookup) string {
	switch {
	case l.Source == availability.SourceDefault:
		return cachedDefault
	case l.Available:
		return cachedOpen
	default:
		return cachedClosed
	}
}

func decodeLookup(val string) (availability.Lookup, bool) {
	switch val {
	case cachedDefault:
		return availability.Resolve(nil), true
	case cachedOpen:
		return availability.Lookup{Source: availability.SourceExplicit, Available: true}, true
	case cachedClosed:
		return availability.Lookup{Source: availability.SourceExplicit, Available: false}, true
	}
	return availability.Lookup{}, false
}
