// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"concierge/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient holds conversation history windows.
	CacheClient *redis.Client
	// LockClient backs the distributed per-conversation lock.
	LockClient *redis.Client
)

func newRedis(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitCache initializes the history cache client.
func InitCache() {
	CacheClient = newRedis(config.AppConfig.RedisCacheDB, "Cache")
}

// GetCacheClient returns the history cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitLockCache initializes the Redis client used for conversation locks.
func InitLockCache() {
	LockClient = newRedis(config.AppConfig.RedisLockDB, "Lock")
}

// GetLockClient returns the Redis client used for conversation locks.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockCache()
	}
	return LockClient
}

// CloseCaches closes every initialized Redis client.
func CloseCaches() {
	for _, c := range []*redis.Client{CacheClient, LockClient} {
		if c != nil {
			_ = c.Close()
		}
	}
}
