package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_InvalidSize(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewPool(n); err == nil {
			t.Fatalf("NewPool(%d): expected error", n)
		}
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p, err := NewPool(3)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		if err := p.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.Release()
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()
	p.Close()

	if got := peak.Load(); got > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", got)
	}
}

func TestPool_CloseWaitsAndRejects(t *testing.T) {
	p, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var finished atomic.Bool
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	go func() {
		defer p.Release()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	}()

	p.Close()
	if !finished.Load() {
		t.Fatal("Close returned before running task finished")
	}

	if err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("Acquire after Close = %v, want ErrPoolClosed", err)
	}
	// Idempotent.
	p.Close()
}

func TestPool_AcquireCanceled(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire on full pool = %v, want deadline exceeded", err)
	}
}
