package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowDrainsBucket(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("token %d should be available", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()

	if !l.Allow("a", 1, 0) {
		t.Fatal("first token for a")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("a should be drained")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("b has its own bucket")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 0) {
		t.Fatal("first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Zero refill: Wait can only end via context.
	if err := l.Wait(ctx, "k", 1, 0); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitReturnsAfterRefill(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 50) {
		t.Fatal("first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, "k", 1, 50); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("refill at 50/s should not take this long")
	}
}
