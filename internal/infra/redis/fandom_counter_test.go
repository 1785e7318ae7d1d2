package redis

import (
	"context"
	"sync"
	"testing"
)

func TestFandomCounterAccumulates(t *testing.T) {
	_, client := newMiniredis(t)
	counter := NewFandomCounter(client)
	ctx := context.Background()

	if score, err := counter.GetFandomScore(ctx, "u1"); err != nil || score != 0 {
		t.Fatalf("expected zero for new user, got %d %v", score, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = counter.IncrementFandomScore(ctx, "u1", 5)
		}()
	}
	wg.Wait()

	total, err := counter.IncrementFandomScore(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if total != 101 {
		t.Fatalf("expected 101, got %d", total)
	}
	if score, _ := counter.GetFandomScore(ctx, "u1"); score != 101 {
		t.Fatalf("expected stored 101, got %d", score)
	}
}
