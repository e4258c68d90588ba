package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultPoolSize is the worker count used when none is configured.
const DefaultPoolSize = 10

// ErrPoolClosed is returned when a task is submitted after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool bounds how many tasks run at once. One Pool is shared by every phase
// of a run and must be closed on every exit path.
type Pool struct {
	sem  *semaphore.Weighted
	size int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", size)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}, nil
}

func (p *Pool) Size() int {
	return p.size
}

// Acquire blocks until a worker slot is free. Every successful Acquire must
// be paired with Release. It fails when ctx is done or the pool is closed.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.sem.Release(1)
		return ErrPoolClosed
	}
	p.wg.Add(1)
	return nil
}

func (p *Pool) Release() {
	p.sem.Release(1)
	p.wg.Done()
}

// Close rejects further tasks and waits for running ones. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
