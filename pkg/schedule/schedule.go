// Package schedule runs recurring tasks on robfig/cron.
//
//	schedule.Cron(config.PartnerRefreshCron()).
//	    Name("partner:refresh").
//	    WithoutOverlapping().
//	    Run(refreshShops)
//	schedule.Every(10 * time.Minute).Name("queue:prune").Run(prune)
//
//	// Once, after every task is registered:
//	stop, err := schedule.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Task receives a context that is cancelled when the scheduler stops.
type Task func(ctx context.Context)

type entry struct {
	id        string
	spec      string
	task      Task
	noOverlap bool
}

// Schedule is a fluent builder for one entry until Run registers it.
type Schedule struct {
	e *entry
}

var (
	regMu   sync.Mutex
	entries []*entry
)

// Cron schedules with a standard 5-field expression or a descriptor such
// as "@daily".
func Cron(expr string) *Schedule { return &Schedule{e: &entry{spec: expr}} }

// Every schedules at a fixed interval; below one second rounds up.
func Every(d time.Duration) *Schedule { return Cron("@every " + d.String()) }

// WithoutOverlapping skips a run while the previous one is still going.
func (s *Schedule) WithoutOverlapping() *Schedule {
	s.e.noOverlap = true
	return s
}

// Name labels the entry in logs and List.
func (s *Schedule) Name(id string) *Schedule {
	s.e.id = id
	return s
}

// Run registers fn. The expression is checked now so a typo fails at boot.
func (s *Schedule) Run(fn Task) error {
	if _, err := cron.ParseStandard(s.e.spec); err != nil {
		return fmt.Errorf("schedule: %q: %w", s.e.spec, err)
	}
	s.e.task = fn

	regMu.Lock()
	defer regMu.Unlock()
	if s.e.id == "" {
		s.e.id = fmt.Sprintf("task-%d", len(entries)+1)
	}
	entries = append(entries, s.e)
	return nil
}

// Start schedules every registered entry and returns a stop function that
// waits for running tasks. Cancelling ctx also stops the scheduler.
func Start(ctx context.Context) (stop func(), err error) {
	log := cronLogger{}
	c := cron.New(cron.WithChain(cron.Recover(log)))
	runCtx, cancel := context.WithCancel(ctx)

	regMu.Lock()
	current := append([]*entry(nil), entries...)
	regMu.Unlock()

	for _, e := range current {
		e := e
		var job cron.Job = cron.FuncJob(func() {
			start := time.Now()
			logger.Info("schedule: running task", "id", e.id)
			e.task(runCtx)
			logger.Info("schedule: task finished", "id", e.id, "duration_ms", time.Since(start).Milliseconds())
		})
		if e.noOverlap {
			job = cron.NewChain(cron.SkipIfStillRunning(log)).Then(job)
		}
		if _, err := c.AddJob(e.spec, job); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule: add %s: %w", e.id, err)
		}
	}

	c.Start()
	logger.Info("schedule: scheduler started", "tasks", len(current))

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			<-c.Stop().Done()
			logger.Info("schedule: scheduler stopped")
		})
	}
	go func() {
		<-runCtx.Done()
		stop()
	}()
	return stop, nil
}

// List describes the registered entries for the CLI.
func List() []string {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, e.spec))
	}
	return out
}

// Reset forgets every entry.
func Reset() {
	regMu.Lock()
	entries = nil
	regMu.Unlock()
}

// cronLogger routes cron's own messages to the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	logger.Debug("schedule: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	logger.Error("schedule: "+msg, append(kv, "error", err)...)
}
