package guard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedemptionLimiter_AllowsUnderLimit(t *testing.T) {
	limiter := NewRedemptionLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := limiter.Check(ctx, "acct-1")
		assert.True(t, result.Allowed, "attempt %d should be allowed", i+1)
	}
}

func TestRedemptionLimiter_BlocksOverLimit(t *testing.T) {
	limiter := NewRedemptionLimiter(2, time.Minute)
	ctx := context.Background()

	limiter.Check(ctx, "acct-1")
	limiter.Check(ctx, "acct-1")

	result := limiter.Check(ctx, "acct-1")
	assert.False(t, result.Allowed)
	assert.Equal(t, "redemption_limiter", result.Guard)
	assert.Contains(t, result.Reason, "redemption attempts exceeded")
}

func TestRedemptionLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewRedemptionLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, limiter.Check(ctx, "acct-1").Allowed)
	assert.False(t, limiter.Check(ctx, "acct-1").Allowed)
	assert.True(t, limiter.Check(ctx, "acct-2").Allowed)
}

func TestRedemptionLimiter_WindowExpires(t *testing.T) {
	limiter := NewRedemptionLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	assert.True(t, limiter.Check(ctx, "acct-1").Allowed)
	assert.False(t, limiter.Check(ctx, "acct-1").Allowed)

	time.Sleep(30 * time.Millisecond)
	assert.True(t, limiter.Check(ctx, "acct-1").Allowed)
}

func TestRedemptionLimiter_Concurrent(t *testing.T) {
	limiter := NewRedemptionLimiter(5, time.Minute)
	ctx := context.Background()

	done := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		go func(n int) {
			result := limiter.Check(ctx, fmt.Sprintf("acct-%d", n%4))
			done <- result.Allowed
		}(i)
	}

	allowed := 0
	for i := 0; i < 20; i++ {
		if <-done {
			allowed++
		}
	}

	// 4 keys at 5 attempts each
	assert.Equal(t, 20, allowed)
}
