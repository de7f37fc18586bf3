// Package workerpool bounds how many goroutines a fan-out may use. The
// partner refresh runs one import per shop through it.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//	if err := pool.SubmitWait(ctx, func() { refresh(shop) }); err != nil {
//	    return err
//	}
package workerpool

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// ErrPoolFull is returned by Submit when every worker is busy and the
// backlog is full.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a fixed set of workers reading from a backlog twice their size.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
}

func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait enqueues task, blocking until there is room or ctx ends.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake, lets queued tasks finish and waits for the
// workers. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		run(task)
	}
}

func run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("workerpool: task panicked", "panic", rec)
		}
	}()
	task()
}

// Each calls fn for every item on at most size goroutines and waits for all
// started calls. It stops submitting when ctx ends and returns ctx.Err().
func Each[T any](ctx context.Context, size int, items []T, fn func(context.Context, T)) error {
	p := New(size)
	var err error
	for _, it := range items {
		it := it
		if err = p.SubmitWait(ctx, func() { fn(ctx, it) }); err != nil {
			break
		}
	}
	p.Shutdown()
	return err
}
