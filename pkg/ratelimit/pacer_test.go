package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacerAllowsBurstThenRefills(t *testing.T) {
	p := NewPacer(1000, 1) // fast rate so the test doesn't sleep meaningfully
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
}

func TestPacerRespectsContextCancellation(t *testing.T) {
	p := NewPacer(0.001, 1) // effectively never refills within the test window
	_ = p.Wait(context.Background()) // consume the initial burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected Wait to fail once context deadline elapses")
	}
}
