package concierge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker serialises turns of the same conversation.
type Locker interface {
	// Lock blocks until the key is held or ctx ends. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}

// MemoryLocker is a keyed mutex for single-instance deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[string]*keyLock{}}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(key, kl)
		})
	}, nil
}

func (l *MemoryLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// ErrLockTimeout is returned when a conversation stays locked past the caller's deadline.
var ErrLockTimeout = errors.New("conversation is busy")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker holds conversation locks across instances with SET NX PX. Only the holder's token
// can release a lock; an abandoned lock expires after TTL.
type RedisLocker struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Retry  time.Duration
	Logger *zap.Logger
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.Prefix + key
	token := uuid.New().String()
	retry := l.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.Client, []string{redisKey}, token).Err(); err != nil {
				l.Logger.Warn("Failed to release conversation lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
