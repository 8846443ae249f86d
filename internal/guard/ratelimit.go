package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resumelane/platform/internal/domain"
)

// RedemptionLimiter is a sliding-window rate limiter keyed by account id.
// It sits in front of the gift code registry so codes cannot be guessed by
// brute force; the durable idempotency guard lives in the ledger store.
type RedemptionLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRedemptionLimiter creates a limiter allowing limit attempts per window.
func NewRedemptionLimiter(limit int, window time.Duration) *RedemptionLimiter {
	return &RedemptionLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Check returns a GuardResult indicating whether the key is within limits.
func (rl *RedemptionLimiter) Check(_ context.Context, key string) domain.GuardResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	// Remove expired entries
	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("redemption attempts exceeded: %d/%s", rl.limit, rl.window),
			Guard:   "redemption_limiter",
		}
	}

	rl.windows[key] = append(valid, now)
	return domain.GuardResult{Allowed: true}
}
