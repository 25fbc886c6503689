package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_AllowUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(3, 1)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Equal(t, 0, tb.GetRemaining())
}

func TestTokenBucket_WaitRespectsContextCancellation(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucket_GetResetTimeWhenFull(t *testing.T) {
	tb := NewTokenBucket(5, 1)
	reset := tb.GetResetTime()
	assert.WithinDuration(t, time.Now(), reset, time.Second)
}

func TestSlidingWindow_AllowUpToLimit(t *testing.T) {
	sw := NewSlidingWindow(2, time.Minute)
	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.GetRemaining())
}

func TestSlidingWindow_ExpiresOldRequests(t *testing.T) {
	sw := NewSlidingWindow(1, 10*time.Millisecond)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, sw.Allow())
}

func TestSlidingWindow_WaitRespectsContextCancellation(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sw.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_InterfaceSatisfiedByBoth(t *testing.T) {
	var _ Limiter = NewTokenBucket(1, 1)
	var _ Limiter = NewSlidingWindow(1, time.Second)
}
