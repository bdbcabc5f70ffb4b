package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestMultiWaitsOnTightestFirst(t *testing.T) {
	slow := rate.NewLimiter(Per(1, 1*time.Second), 1)
	fast := rate.NewLimiter(Per(100, 1*time.Second), 100)

	m := Multi(fast, slow)
	assert.Equal(t, slow.Limit(), m.Limit())

	require.NoError(t, m.Wait(context.Background()))
}

func TestMultiWaitCancel(t *testing.T) {
	l := rate.NewLimiter(Per(1, 1*time.Hour), 1)
	m := Multi(l)
	require.NoError(t, m.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, m.Wait(ctx))
}

func TestBucket(t *testing.T) {
	b := NewBucket(time.Hour, 2)
	require.NoError(t, b.Wait(context.Background()))
	require.NoError(t, b.Wait(context.Background()))

	// bucket drained, Wait must respect the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)

	assert.False(t, b.TakeAvailable())
}
