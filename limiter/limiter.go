package limiter

import (
	"context"
	"sort"
	"time"

	"github.com/juju/ratelimit"
	"golang.org/x/time/rate"
)

// RateLimiter is what the crawler, the LLM client and the API throttle agree
// on: block until the next call is allowed, or fail when the context dies.
type RateLimiter interface {
	Wait(context.Context) error
	Limit() rate.Limit
}

func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}

// Multi combines several limiters; Wait blocks on each of them, tightest
// limit first.
func Multi(limiters ...RateLimiter) *MultiLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	sort.Slice(limiters, byLimit)

	return &MultiLimiter{limiters: limiters}
}

type MultiLimiter struct {
	limiters []RateLimiter
}

func (l *MultiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (l *MultiLimiter) Limit() rate.Limit {
	return l.limiters[0].Limit()
}

// Bucket adapts a juju token bucket to the RateLimiter interface for
// call sites that want burst-friendly throttling.
type Bucket struct {
	bucket *ratelimit.Bucket
}

func NewBucket(fillInterval time.Duration, capacity int64) *Bucket {
	return &Bucket{bucket: ratelimit.NewBucket(fillInterval, capacity)}
}

func (b *Bucket) Wait(ctx context.Context) error {
	d := b.bucket.Take(1)
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *Bucket) Limit() rate.Limit {
	return rate.Limit(b.bucket.Rate())
}

// TakeAvailable reports whether a token could be taken without blocking.
func (b *Bucket) TakeAvailable() bool {
	return b.bucket.TakeAvailable(1) == 1
}
