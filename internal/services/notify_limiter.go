package services

import (
	"fmt"
	"sync"
	"time"
)

// SendRateLimiter caps outbound notifications per phone number over a
// sliding window.
type SendRateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
}

// NewSendRateLimiter creates a limiter allowing maxRequests sends per
// window for each destination.
func NewSendRateLimiter(maxRequests int, window time.Duration) *SendRateLimiter {
	return &SendRateLimiter{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow records a send attempt for the destination, or rejects it when the
// window is full.
func (rl *SendRateLimiter) Allow(phoneNumber string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.evictOld(phoneNumber, now)

	if len(rl.requests[phoneNumber]) >= rl.maxRequests {
		return fmt.Errorf("rate limit exceeded: maximum %d messages per %v", rl.maxRequests, rl.window)
	}
	rl.requests[phoneNumber] = append(rl.requests[phoneNumber], now)
	return nil
}

func (rl *SendRateLimiter) evictOld(phoneNumber string, now time.Time) {
	cutoff := now.Add(-rl.window)
	kept := rl.requests[phoneNumber][:0]
	for _, t := range rl.requests[phoneNumber] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(rl.requests, phoneNumber)
		return
	}
	rl.requests[phoneNumber] = kept
}
