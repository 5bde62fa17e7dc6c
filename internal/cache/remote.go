package cache

import (
	"context"
	"time"

	"nexus-cache/internal/circuitbreaker"
	"nexus-cache/internal/codec"
	"nexus-cache/internal/common/errors"
	"nexus-cache/internal/common/logging"
	"nexus-cache/internal/redis"
)

// RedisCache is the remote tier. Values pass through a codec on the way to
// and from Redis, expiry is delegated to Redis' own TTL mechanism, and
// every call runs inside a circuit breaker so a store outage fails fast
// instead of stacking connection timeouts.
//
// TTL policy: a ttl <= 0 stores the value without expiration.
//
// Reads fail open: any provider or decode failure on Get degrades to a
// miss. Writes surface their errors, with serialization failures kept
// distinct from provider I/O failures.
type RedisCache struct {
	client  *redis.Client
	codec   codec.Codec
	breaker *circuitbreaker.GoBreakerAdapter
	logger  logging.Logger
}

// NewRedisCache creates the remote tier over an established client. A nil
// breaker disables outage protection; a nil logger uses the global one.
func NewRedisCache(client *redis.Client, c codec.Codec, breaker *circuitbreaker.GoBreakerAdapter, logger logging.Logger) (*RedisCache, error) {
	if client == nil {
		return nil, errors.ConfigError("redis client is required")
	}
	if c == nil {
		c = codec.NewJSONCodec()
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &RedisCache{
		client:  client,
		codec:   c,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Health pings the underlying Redis connection.
func (r *RedisCache) Health() error {
	return r.client.Health()
}

// execute funnels a provider call through the breaker when one is set.
func (r *RedisCache) execute(ctx context.Context, fn func() error) error {
	if r.breaker == nil {
		return fn()
	}
	return r.breaker.Execute(ctx, fn)
}

func (r *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	var data []byte
	var found bool

	err := r.execute(ctx, func() error {
		var getErr error
		data, found, getErr = r.client.GetBytes(ctx, key)
		if getErr != nil {
			return errors.CacheError("redis get failed", getErr)
		}
		return nil
	})
	if err != nil {
		r.logger.Debug("Remote cache read degraded to miss",
			logging.String("key", key),
			logging.Err(err),
		)
		return nil, false
	}
	if !found || len(data) == 0 {
		return nil, false
	}

	var value interface{}
	if err := r.codec.Unmarshal(data, &value); err != nil {
		r.logger.Warn("Discarding undecodable cache entry",
			logging.String("key", key),
			logging.String("codec", r.codec.Name()),
			logging.Err(err),
		)
		return nil, false
	}
	return value, true
}

func (r *RedisCache) GetAll(ctx context.Context, keys []string) (map[string]interface{}, error) {
	var raw map[string][]byte

	err := r.execute(ctx, func() error {
		var getErr error
		raw, getErr = r.client.GetManyBytes(ctx, keys)
		if getErr != nil {
			return errors.CacheError("redis mget failed", getErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(raw))
	for key, data := range raw {
		if len(data) == 0 {
			continue
		}
		var value interface{}
		if err := r.codec.Unmarshal(data, &value); err != nil {
			r.logger.Warn("Discarding undecodable cache entry",
				logging.String("key", key),
				logging.Err(err),
			)
			continue
		}
		result[key] = value
	}
	return result, nil
}

func (r *RedisCache) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}

	return r.execute(ctx, func() error {
		if setErr := r.client.SetBytes(ctx, key, data, ttl); setErr != nil {
			return errors.CacheError("redis set failed", setErr)
		}
		return nil
	})
}

func (r *RedisCache) PutAll(ctx context.Context, entries map[string]interface{}, ttl time.Duration) error {
	encoded := make(map[string][]byte, len(entries))
	for key, value := range entries {
		data, err := r.codec.Marshal(value)
		if err != nil {
			return err
		}
		encoded[key] = data
	}

	return r.execute(ctx, func() error {
		if setErr := r.client.SetManyBytes(ctx, encoded, ttl); setErr != nil {
			return errors.CacheError("redis pipelined set failed", setErr)
		}
		return nil
	})
}

func (r *RedisCache) PutIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return false, err
	}

	var stored bool
	err = r.execute(ctx, func() error {
		var setErr error
		stored, setErr = r.client.SetBytesNX(ctx, key, data, ttl)
		if setErr != nil {
			return errors.CacheError("redis setnx failed", setErr)
		}
		return nil
	})
	return stored, err
}

func (r *RedisCache) Remove(ctx context.Context, key string) error {
	return r.execute(ctx, func() error {
		if delErr := r.client.Delete(ctx, key); delErr != nil {
			return errors.CacheError("redis delete failed", delErr)
		}
		return nil
	})
}

func (r *RedisCache) Contains(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.execute(ctx, func() error {
		var existsErr error
		exists, existsErr = r.client.Exists(ctx, key)
		if existsErr != nil {
			return errors.CacheError("redis exists failed", existsErr)
		}
		return nil
	})
	return exists, err
}

func (r *RedisCache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	var value int64
	err := r.execute(ctx, func() error {
		var incrErr error
		value, incrErr = r.client.IncrBy(ctx, key, delta)
		if incrErr != nil {
			return errors.CacheError("redis increment failed", incrErr)
		}
		return nil
	})
	return value, err
}
