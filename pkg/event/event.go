// Package event is an in-process publish/subscribe dispatcher. Services fire
// domain events after commit; listeners registered at boot react to them
// (cache flushes, queued mail, partner feed pushes).
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
	inflight sync.WaitGroup
)

// Listen registers a handler for the named event.
func Listen(name string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = append(handlers[name], h)
}

func snapshot(name string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[name]))
	copy(hs, handlers[name])
	return hs
}

// Fire runs every listener synchronously, in registration order. A
// panicking listener is logged and does not stop the others.
func Fire(ctx context.Context, name string, payload any) {
	for _, h := range snapshot(name) {
		call(ctx, name, h, payload)
	}
}

// FireAsync runs every listener on its own goroutine and returns at once.
// The listeners get a context detached from ctx's cancellation.
func FireAsync(ctx context.Context, name string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range snapshot(name) {
		inflight.Add(1)
		go func(h Handler) {
			defer inflight.Done()
			call(detached, name, h, payload)
		}(h)
	}
}

func call(ctx context.Context, name string, h Handler, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", rec)
		}
	}()
	h(ctx, payload)
}

// Wait blocks until every FireAsync listener has returned. Used at shutdown
// and in tests.
func Wait() { inflight.Wait() }

// Flush removes all listeners.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
