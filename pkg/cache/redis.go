package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 5 * time.Second

var ErrCacheMiss = errors.New("cache miss")

// RedisCache stores JSON values under "<prefix>:<key>" names.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings; it returns nil when Redis is unreachable.
func NewRedisCache(addr, password string, db int, log *logrus.Entry) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", addr).Error("redis unreachable")
		_ = client.Close()
		return nil
	}

	log.WithField("addr", addr).Info("redis connected")
	return NewRedisCacheFromClient(client)
}

func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func Key(prefix, key string) string {
	return prefix + ":" + key
}

// SetWithPrefix encodes value as JSON; a zero ttl keeps the key forever.
func (r *RedisCache) SetWithPrefix(ctx context.Context, prefix, key string, value interface{}, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", Key(prefix, key))
	}
	if err := r.client.Set(ctx, Key(prefix, key), encoded, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", Key(prefix, key))
	}
	return nil
}

// GetWithPrefix decodes the stored JSON into dest, or returns ErrCacheMiss.
func (r *RedisCache) GetWithPrefix(ctx context.Context, prefix, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, Key(prefix, key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return errors.Wrapf(err, "redis get %s", Key(prefix, key))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "decode %s", Key(prefix, key))
	}
	return nil
}

func (r *RedisCache) DeleteWithPrefix(ctx context.Context, prefix, key string) error {
	return errors.Wrapf(r.client.Del(ctx, Key(prefix, key)).Err(), "redis del %s", Key(prefix, key))
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
