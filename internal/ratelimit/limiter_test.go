package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_AuthPolicyWindow(t *testing.T) {
	l := NewLimiter(AuthPolicy)
	now := time.Now()
	l.nowFunc = func() time.Time { return now }

	// exactly 5 requests fit the window
	for i := 0; i < 5; i++ {
		d := l.Allow("203.0.113.7")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if d.Remaining != 5-(i+1) {
			t.Fatalf("request %d: remaining=%d, want %d", i+1, d.Remaining, 5-(i+1))
		}
	}

	// the 6th within the same window is rejected
	d := l.Allow("203.0.113.7")
	if d.Allowed {
		t.Fatal("6th request within the window should be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("rejected decision remaining=%d, want 0", d.Remaining)
	}

	// other identities are unaffected
	if !l.Allow("203.0.113.8").Allowed {
		t.Fatal("separate identity should have its own window")
	}

	// after the window rolls over, requests succeed again
	now = now.Add(15*time.Minute + time.Second)
	d = l.Allow("203.0.113.7")
	if !d.Allowed {
		t.Fatal("request after window rollover should be allowed")
	}
	if d.Remaining != 4 {
		t.Fatalf("fresh window remaining=%d, want 4", d.Remaining)
	}
}

func TestLimiter_ResetAt(t *testing.T) {
	l := NewLimiter(Policy{Name: "test", Limit: 2, Window: time.Minute})
	now := time.Now()
	l.nowFunc = func() time.Time { return now }

	d := l.Allow("id")
	want := now.Add(time.Minute)
	if !d.ResetAt.Equal(want) {
		t.Fatalf("ResetAt=%v, want %v", d.ResetAt, want)
	}

	// reset time is anchored to the window start, not the latest request
	now = now.Add(30 * time.Second)
	d = l.Allow("id")
	if !d.ResetAt.Equal(want) {
		t.Fatalf("ResetAt moved to %v, want %v", d.ResetAt, want)
	}
}

func TestLimiter_PruneDropsStaleWindows(t *testing.T) {
	l := NewLimiter(Policy{Name: "test", Limit: 1, Window: time.Minute})
	now := time.Now()
	l.nowFunc = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")

	now = now.Add(2 * time.Minute)
	l.prune(now)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.windows) != 0 {
		t.Fatalf("expected all windows pruned, got %d", len(l.windows))
	}
}
