package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

type cache struct {
	redis.UniversalClient
	metrics *Metrics
	log     *logger
}

func newCache(conn redis.UniversalClient, m *Metrics, log *logger) *cache {
	return &cache{
		UniversalClient: conn,
		metrics:         m,
		log:             log,
	}
}

func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	str, err := c.Get(ctx, key).Result()
	if err != nil {
		// returns err redis.Nil if key does not exist
		if err == redis.Nil {
			c.metrics.cacheMiss()
		}
		return err
	}

	c.metrics.cacheHit()
	return json.Unmarshal([]byte(str), value)
}

func (c *cache) set(ctx context.Context, key string, value interface{}, expiration int) error {
	str, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.log.debug("set() key: %s value: %s", key, string(str))

	return c.Set(ctx, key, str, ttl(expiration)).Err()
}

func jsonRow(row map[string]interface{}) ([]byte, error) {
	return json.Marshal(row)
}

// ttl converts seconds to a redis expiration; 0 doesn't expire
func ttl(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// ids returns the primary keys stored in a list key between start & stop (inclusive)
func (c *cache) ids(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ids, err := c.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		c.metrics.cacheHit()
	}
	return ids, nil
}

// pushList replaces the list at key with ids, in order, and sets its TTL
func (c *cache) pushList(ctx context.Context, key string, ids []interface{}, expiration int) error {
	if len(ids) == 0 {
		// an empty list can't exist in redis; the next select goes to the db again
		return c.Del(ctx, key).Err()
	}

	pipe := c.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, ids...)
	if expiration > 0 {
		pipe.Expire(ctx, key, ttl(expiration))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// clear deletes every key matching pattern
func (c *cache) clear(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
