package ratelimit

import (
	"sync"
	"time"
)

// Policy names a fixed-window limit applied per client identity.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// GeneralPolicy is applied broadly across the API.
var GeneralPolicy = Policy{Name: "general", Limit: 100, Window: 15 * time.Minute}

// AuthPolicy is the stricter limit for login/verification endpoints to blunt
// credential stuffing and SMS bombing.
var AuthPolicy = Policy{Name: "auth", Limit: 5, Window: 15 * time.Minute}

// Decision is the outcome of one Allow call, carrying everything the HTTP
// layer needs for the RateLimit-* headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	startAt time.Time
}

// Limiter counts requests per identity within a fixed window. Counters are
// private to this component; callers only observe Decisions.
type Limiter struct {
	mu      sync.Mutex
	policy  Policy
	windows map[string]*window
	nowFunc func() time.Time
}

// NewLimiter returns a Limiter enforcing the given policy.
func NewLimiter(policy Policy) *Limiter {
	if policy.Limit <= 0 {
		policy.Limit = 100
	}
	if policy.Window <= 0 {
		policy.Window = 15 * time.Minute
	}
	return &Limiter{
		policy:  policy,
		windows: make(map[string]*window),
		nowFunc: time.Now,
	}
}

// Allow records a request for identity and decides whether it fits the window.
func (l *Limiter) Allow(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	w, ok := l.windows[identity]
	if !ok || now.Sub(w.startAt) >= l.policy.Window {
		if len(l.windows) > pruneThreshold {
			l.prune(now)
		}
		w = &window{startAt: now}
		l.windows[identity] = w
	}

	resetAt := w.startAt.Add(l.policy.Window)
	if w.count >= l.policy.Limit {
		return Decision{Allowed: false, Limit: l.policy.Limit, Remaining: 0, ResetAt: resetAt}
	}
	w.count++
	return Decision{
		Allowed:   true,
		Limit:     l.policy.Limit,
		Remaining: l.policy.Limit - w.count,
		ResetAt:   resetAt,
	}
}

const pruneThreshold = 10000

// prune drops rolled-over windows. Called with the lock held.
func (l *Limiter) prune(now time.Time) {
	for id, w := range l.windows {
		if now.Sub(w.startAt) >= l.policy.Window {
			delete(l.windows, id)
		}
	}
}
