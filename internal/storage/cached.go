package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cachePrefix = "cache:"

// Cached serves reads from redis and falls back to the primary backend on a
// miss. Writes go to the primary first. Redis failures never fail a call;
// they are logged and the primary answers.
type Cached struct {
	primary Backend
	client  *redis.Client
	ttl     time.Duration
	log     *zap.Logger
}

var _ Backend = (*Cached)(nil)

func NewCached(primary Backend, client *redis.Client, ttl time.Duration, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{primary: primary, client: client, ttl: ttl, log: log}
}

func (c *Cached) Client() *redis.Client { return c.client }

func (c *Cached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	switch {
	case err == nil:
		return v, true, nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, ok, err := c.primary.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if err := c.client.Set(ctx, cachePrefix+key, v, c.ttl).Err(); err != nil {
		c.log.Warn("cache fill failed", zap.String("key", key), zap.Error(err))
	}
	return v, true, nil
}

func (c *Cached) Put(ctx context.Context, key string, value []byte) error {
	if err := c.primary.Put(ctx, key, value); err != nil {
		return err
	}
	if err := c.client.Set(ctx, cachePrefix+key, value, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		c.evict(ctx, key)
	}
	return nil
}

func (c *Cached) Delete(ctx context.Context, key string) error {
	if err := c.primary.Delete(ctx, key); err != nil {
		return err
	}
	c.evict(ctx, key)
	return nil
}

func (c *Cached) evict(ctx context.Context, key string) {
	if err := c.client.Del(ctx, cachePrefix+key).Err(); err != nil {
		c.log.Warn("cache evict failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached) Close() error {
	err := c.primary.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}
