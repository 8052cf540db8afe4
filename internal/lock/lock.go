// Package lock provides short-lived named locks used to serialize work across
// API replicas. Locks are advisory: callers must still rely on database
// constraints for correctness.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the lock is held elsewhere after all retries.
var ErrNotObtained = errors.New("lock not obtained")

type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type redisLocker struct {
	client  *redislock.Client
	backoff time.Duration
	retries int
}

// NewRedisLocker builds a Locker on top of redislock. Obtain retries with a
// linear backoff before giving up.
func NewRedisLocker(rdb redis.UniversalClient) Locker {
	return &redisLocker{
		client:  redislock.New(rdb),
		backoff: 50 * time.Millisecond,
		retries: 20,
	}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lk, nil
}

type noopLocker struct{}

// NewNoop returns a Locker that always succeeds immediately. It is used when
// redis is not configured.
func NewNoop() Locker {
	return noopLocker{}
}

func (noopLocker) Obtain(context.Context, string, time.Duration) (Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
