package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"transfers-exchange/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BuyerLocker serializes billing for a single buyer. Lock blocks briefly for
// the holder to finish and returns a release func on success.
type BuyerLocker interface {
	Lock(ctx context.Context, buyerID string) (release func(), err error)
}

// CapCounter counts billable calls per campaign per UTC day.
type CapCounter interface {
	Incr(ctx context.Context, campaignID string, day time.Time) (int64, error)
}

const (
	lockTTL        = 5 * time.Second
	lockRetryEvery = 50 * time.Millisecond
	lockWaitMax    = 2 * time.Second
)

// RedisLimiter implements both BuyerLocker and CapCounter on a shared client.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter { return &RedisLimiter{rdb: rdb} }

func (l *RedisLimiter) Lock(ctx context.Context, buyerID string) (func(), error) {
	key := "billing:lock:" + buyerID
	owner := uuid.NewString()

	deadline := time.Now().Add(lockWaitMax)
	for {
		ok, err := utils.AcquireLock(ctx, l.rdb, key, owner, lockTTL)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Best effort; the TTL reclaims the lock if release fails.
				_ = utils.ReleaseLock(context.WithoutCancel(ctx), l.rdb, key, owner)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("buyer %s billing lock busy", buyerID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryEvery):
		}
	}
}

func (l *RedisLimiter) Incr(ctx context.Context, campaignID string, day time.Time) (int64, error) {
	day = day.UTC()
	key := fmt.Sprintf("billing:cap:%s:%s", campaignID, day.Format("20060102"))
	// TTL covers the rest of the UTC day plus slack, so counters self-expire.
	midnight := day.Truncate(24 * time.Hour).Add(24 * time.Hour)
	ttl := midnight.Sub(day) + time.Hour
	return utils.IncrWindowCounter(ctx, l.rdb, key, ttl)
}

// MemoryLimiter is the in-process fallback used in tests and when redis is
// not configured. Serialization then only holds within one process.
type MemoryLimiter struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	counts map[string]int64
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		locks:  make(map[string]*sync.Mutex),
		counts: make(map[string]int64),
	}
}

func (l *MemoryLimiter) Lock(ctx context.Context, buyerID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[buyerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[buyerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

func (l *MemoryLimiter) Incr(ctx context.Context, campaignID string, day time.Time) (int64, error) {
	key := campaignID + ":" + day.UTC().Format("20060102")
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key], nil
}
