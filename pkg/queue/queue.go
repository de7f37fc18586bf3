// Package queue runs background jobs such as confirmation and order mails.
//
//	type ConfirmationMail struct{ UserID uint }
//
//	func (ConfirmationMail) Name() string { return "mail.confirmation" }
//	func (j *ConfirmationMail) Handle(ctx context.Context) error { ... }
//
//	queue.Register("mail.confirmation", func() queue.Job { return &ConfirmationMail{} })
//	queue.Dispatch(ctx, &ConfirmationMail{UserID: 7})
//
// Jobs are JSON-encoded into an envelope and pushed to a Driver (memory or
// Redis). In sync mode Dispatch runs the job inline.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

// Job is a unit of background work. Name must match the name the job was
// registered under.
type Job interface {
	Name() string
	Handle(ctx context.Context) error
}

// FailedJob is a job that exhausted its attempts.
type FailedJob struct {
	Name     string
	Payload  json.RawMessage
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend. Pop returns (nil, nil) when nothing
// arrived before its own poll timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// ErrUnknownJob is returned by Dispatch for an unregistered job name.
var ErrUnknownJob = errors.New("queue: job is not registered")

type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	sync     bool
	registry map[string]func() Job
	failed   []FailedJob
	maxTries int
	backoff  time.Duration
	wg       sync.WaitGroup
}

var defaultManager = &Manager{
	registry: map[string]func() Job{},
	maxTries: 3,
	backoff:  time.Second,
	driver:   NewMemoryDriver(1000),
}

// SetDriver swaps the backend and leaves sync mode.
func SetDriver(d Driver) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.driver = d
	defaultManager.sync = false
}

// SetSync makes Dispatch run jobs inline.
func SetSync(on bool) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.sync = on
}

// SetRetry sets the attempts per job and the base backoff between them; the
// n-th retry waits n × backoff.
func SetRetry(attempts int, backoff time.Duration) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if attempts < 1 {
		attempts = 1
	}
	defaultManager.maxTries = attempts
	defaultManager.backoff = backoff
}

// Register makes a job name decodable by workers.
func Register(name string, factory func() Job) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.registry[name] = factory
}

// ─── Dispatch ─────────────────────────────────────────────────────────────────

type envelope struct {
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

// Dispatch enqueues job, or runs it before returning in sync mode.
func Dispatch(ctx context.Context, job Job) error {
	return defaultManager.dispatch(ctx, job)
}

func (m *Manager) dispatch(ctx context.Context, job Job) error {
	name := job.Name()

	m.mu.RLock()
	_, known := m.registry[name]
	d, inline := m.driver, m.sync
	m.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Name: name, Payload: payload, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	if inline {
		m.process(context.WithoutCancel(ctx), env)
		return nil
	}
	if err := d.Push(ctx, env); err != nil {
		return fmt.Errorf("queue: push %s: %w", name, err)
	}
	return nil
}

// ─── Workers ──────────────────────────────────────────────────────────────────

// StartWorkers launches n workers that run until ctx is cancelled. Wait
// blocks until they have all returned.
func StartWorkers(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		defaultManager.wg.Add(1)
		go func() {
			defer defaultManager.wg.Done()
			defaultManager.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker started by StartWorkers has stopped.
func Wait() { defaultManager.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw != nil {
			m.process(ctx, raw)
		}
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Name]
	tries, backoff := m.maxTries, m.backoff
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job", "name", env.Name)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: decode payload", "name", env.Name, "error", err)
		return
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		if lastErr = m.run(ctx, job); lastErr == nil {
			metrics.RecordQueueJob(env.Name, "success", start)
			logger.Debug("queue: job processed", "name", env.Name, "attempt", attempt)
			return
		}
		logger.Warn("queue: job failed", "name", env.Name, "attempt", attempt, "error", lastErr)
		if attempt < tries && !sleep(ctx, time.Duration(attempt)*backoff) {
			break
		}
	}

	metrics.RecordQueueJob(env.Name, "failed", start)
	m.persistFailed(ctx, FailedJob{
		Name: env.Name, Payload: env.Payload, Err: lastErr, FailedAt: time.Now(), Attempts: tries,
	})
	logger.Error("queue: job exhausted retries", "name", env.Name, "error", lastErr)
}

func (m *Manager) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("queue: job panicked: %v", rec)
		}
	}()
	return job.Handle(ctx)
}

// sleep waits d or until ctx ends; it reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// FailedJobs returns the failures recorded by this process.
func FailedJobs() []FailedJob {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	out := make([]FailedJob, len(defaultManager.failed))
	copy(out, defaultManager.failed)
	return out
}
