// File: services/state/historyCache.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"concierge/models"
	"concierge/utils"

	"github.com/go-redis/redis/v8"
)

// RedisHistoryCache keeps the tail of each conversation's history in a Redis list so routing
// does not read the history array from MongoDB on every turn.
type RedisHistoryCache struct {
	client   *redis.Client
	capacity int64
	ttl      time.Duration
}

func NewRedisHistoryCache(client *redis.Client, capacity int, ttl time.Duration) *RedisHistoryCache {
	if capacity <= 0 {
		capacity = 20
	}
	return &RedisHistoryCache{client: client, capacity: int64(capacity), ttl: ttl}
}

func historyKey(conversationID string) string {
	return utils.HistoryCachePrefix + conversationID
}

// completeKey marks a cached window that holds the whole conversation.
func completeKey(conversationID string) string {
	return historyKey(conversationID) + ":complete"
}

func encodeAll(msgs []models.HistoryMsg) ([]interface{}, error) {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		values = append(values, b)
	}
	return values, nil
}

// Append adds messages to an already cached window. Uncached conversations are left alone so
// a partial window is never created.
func (c *RedisHistoryCache) Append(ctx context.Context, conversationID string, msgs ...models.HistoryMsg) error {
	values, err := encodeAll(msgs)
	if err != nil || len(values) == 0 {
		return err
	}
	key := historyKey(conversationID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPushX(ctx, key, values...)
		pipe.LTrim(ctx, key, -c.capacity, -1)
		pipe.Expire(ctx, key, c.ttl)
		pipe.Expire(ctx, completeKey(conversationID), c.ttl)
		return nil
	})
	return err
}

// Recent returns the last n cached messages. ok is false when fewer than n are cached, unless
// the cached window is the whole conversation.
func (c *RedisHistoryCache) Recent(ctx context.Context, conversationID string, n int) ([]models.HistoryMsg, bool, error) {
	if n <= 0 || int64(n) > c.capacity {
		return nil, false, nil
	}
	var lrange *redis.StringSliceCmd
	var complete *redis.IntCmd
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, historyKey(conversationID), int64(-n), -1)
		complete = pipe.Exists(ctx, completeKey(conversationID))
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	raw := lrange.Val()
	if len(raw) == 0 || (len(raw) < n && complete.Val() == 0) {
		return nil, false, nil
	}
	msgs := make([]models.HistoryMsg, 0, len(raw))
	for _, r := range raw {
		var m models.HistoryMsg
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, false, fmt.Errorf("decode cached history: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, true, nil
}

// Fill replaces the cached window with msgs. complete says msgs is the whole conversation.
func (c *RedisHistoryCache) Fill(ctx context.Context, conversationID string, msgs []models.HistoryMsg, complete bool) error {
	values, err := encodeAll(msgs)
	if err != nil {
		return err
	}
	key := historyKey(conversationID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key, completeKey(conversationID))
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
			pipe.LTrim(ctx, key, -c.capacity, -1)
			pipe.Expire(ctx, key, c.ttl)
			if complete {
				pipe.Set(ctx, completeKey(conversationID), 1, c.ttl)
			}
		}
		return nil
	})
	return err
}

// Invalidate drops the cached window.
func (c *RedisHistoryCache) Invalidate(ctx context.Context, conversationID string) {
	_ = c.client.Del(ctx, historyKey(conversationID), completeKey(conversationID)).Err()
}
