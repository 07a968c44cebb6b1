package signal

import (
	"sync"
	"time"

	"github.com/dkeye/PlanningPoker/internal/domain"
)

// VoteRateLimiter is a sliding-window limiter keyed by session token.
type VoteRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.Token][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewVoteRateLimiter(limit int, interval time.Duration) *VoteRateLimiter {
	return &VoteRateLimiter{
		history:  make(map[domain.Token][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *VoteRateLimiter) Allow(token domain.Token) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[token]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[token] = fresh
		return false
	}

	rl.history[token] = append(fresh, now)
	return true
}

// Forget drops the history of token.
func (rl *VoteRateLimiter) Forget(token domain.Token) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, token)
}

// Reset drops the history of every token.
func (rl *VoteRateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.history = make(map[domain.Token][]time.Time)
}
