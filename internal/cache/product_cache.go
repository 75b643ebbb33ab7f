// Package cache keeps public product reads off the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/venkat-sld/shoplive/internal/model"
)

var (
	// ErrMiss is returned by Get when the product is not cached
	ErrMiss = errors.New("cache miss")
	// ErrStale is returned by Set when the product was invalidated after the
	// version passed to it was read
	ErrStale = errors.New("cache entry invalidated")
)

// ProductCache stores public product snapshots by id.
// Get returns the product version alongside a miss; a snapshot loaded from the
// database after that miss is only stored by Set if the version is unchanged.
type ProductCache interface {
	Get(ctx context.Context, id uint) (*model.Product, int64, error)
	Set(ctx context.Context, product *model.Product, version int64) error
	Invalidate(ctx context.Context, id uint) error
}

// RedisProductCache keeps JSON snapshots in redis with a fixed TTL
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func productKey(id uint) string {
	return fmt.Sprintf("shoplive:product:%d", id)
}

// versionKey counts invalidations of one product
func versionKey(id uint) string {
	return fmt.Sprintf("shoplive:product:%d:version", id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, g getter, id uint) (int64, error) {
	version, err := g.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (c *RedisProductCache) Get(ctx context.Context, id uint) (*model.Product, int64, error) {
	version, err := readVersion(ctx, c.client, id)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, ErrMiss
		}
		return nil, version, err
	}

	var product model.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, version, fmt.Errorf("decode cached product %d: %w", id, err)
	}
	return &product, version, nil
}

// Set stores the snapshot unless the product was invalidated since version was read
func (c *RedisProductCache) Set(ctx context.Context, product *model.Product, version int64) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product %d: %w", product.ID, err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, product.ID)
		if err != nil {
			return err
		}
		if current != version {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, productKey(product.ID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey(product.ID))
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate drops the snapshot and bumps the version so in-flight loads are not stored
func (c *RedisProductCache) Invalidate(ctx context.Context, id uint) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Del(ctx, productKey(id))
		return nil
	})
	return err
}

// NopProductCache is used when no redis address is configured
type NopProductCache struct{}

func (NopProductCache) Get(context.Context, uint) (*model.Product, int64, error) {
	return nil, 0, ErrMiss
}
func (NopProductCache) Set(context.Context, *model.Product, int64) error { return nil }
func (NopProductCache) Invalidate(context.Context, uint) error           { return nil }
