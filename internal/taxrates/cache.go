package taxrates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache keeps per-tenant tax rate lists in Redis. Each tenant has a version
// counter; bumping it orphans the previous list so entries simply expire.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(tenantID uuid.UUID) string {
	return "taxrates:" + tenantID.String() + ":version"
}

func listKey(tenantID uuid.UUID, version int64) string {
	return fmt.Sprintf("taxrates:%s:list:%d", tenantID, version)
}

// Version returns the tenant's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(tenantID), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(tenantID)).Int64()
	}
	return ver, err
}

// List returns the cached list or populates it using loader. Concurrent
// misses for the same tenant share one loader call.
func (c *Cache) List(ctx context.Context, tenantID uuid.UUID, loader func(context.Context) ([]TaxRate, error)) ([]TaxRate, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.Version(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	key := listKey(tenantID, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rates []TaxRate
		if err := json.Unmarshal(payload, &rates); err == nil {
			return rates, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	res := c.group.DoChan(key, func() (any, error) {
		rates, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(rates)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return rates, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-res:
		if out.Err != nil {
			return nil, out.Err
		}
		rates := out.Val.([]TaxRate)
		cp := make([]TaxRate, len(rates))
		copy(cp, rates)
		return cp, nil
	}
}

// Invalidate bumps the tenant's version.
func (c *Cache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(tenantID)).Err()
}
