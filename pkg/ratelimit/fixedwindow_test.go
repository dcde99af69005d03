package ratelimit

import (
	"testing"
	"time"
)

func TestFixedWindowAllowsUpToCeiling(t *testing.T) {
	f := New(time.Minute, 3)
	frozen := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		if !f.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if f.Allow("1.2.3.4") {
		t.Error("4th request in window should be denied")
	}
}

func TestFixedWindowResetsAfterWindowElapses(t *testing.T) {
	f := New(time.Minute, 1)
	frozen := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return frozen }

	if !f.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if f.Allow("k") {
		t.Fatal("second request in same window should be denied")
	}

	f.now = func() time.Time { return frozen.Add(time.Minute + time.Second) }
	if !f.Allow("k") {
		t.Error("request in new window should be allowed")
	}
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	f := New(time.Minute, 1)
	if !f.Allow("a") {
		t.Fatal("a should be allowed")
	}
	if !f.Allow("b") {
		t.Fatal("b should be allowed independently of a")
	}
}

func TestFixedWindowRemainingAndResetAt(t *testing.T) {
	f := New(time.Minute, 5)
	frozen := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return frozen }

	f.Allow("k")
	f.Allow("k")
	if rem := f.Remaining("k"); rem != 3 {
		t.Errorf("Remaining = %d, want 3", rem)
	}
	if got := f.ResetAt("k"); !got.Equal(frozen.Add(time.Minute)) {
		t.Errorf("ResetAt = %v, want %v", got, frozen.Add(time.Minute))
	}
}

func TestFixedWindowSweepDropsStaleKeys(t *testing.T) {
	f := New(time.Minute, 5)
	frozen := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return frozen }
	f.Allow("stale")

	f.now = func() time.Time { return frozen.Add(2 * time.Minute) }
	if removed := f.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if len(f.counters) != 0 {
		t.Error("expected counters empty after sweep")
	}
}
