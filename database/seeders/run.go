// Package seeders fills a fresh database with demo data. Seeders register
// themselves from init and run through `bazaar seed`.
package seeders

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Func writes one set of rows. It must be safe to run twice.
type Func func(db *gorm.DB) error

type seeder struct {
	name string
	fn   Func
}

var (
	mu  sync.Mutex
	all []seeder
)

func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	all = append(all, seeder{name: name, fn: fn})
}

// Run executes the named seeders, or every one when names is empty, in
// registration order. Each runs in its own transaction. It returns the
// names that completed.
func Run(db *gorm.DB, names ...string) ([]string, error) {
	todo, err := pick(names)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, s := range todo {
		if err := db.Transaction(func(tx *gorm.DB) error { return s.fn(tx) }); err != nil {
			return done, fmt.Errorf("seeder %q: %w", s.name, err)
		}
		logger.Info("seed: done", "seeder", s.name)
		done = append(done, s.name)
	}
	return done, nil
}

func pick(names []string) ([]seeder, error) {
	mu.Lock()
	defer mu.Unlock()
	if len(names) == 0 {
		return append([]seeder(nil), all...), nil
	}

	byName := make(map[string]seeder, len(all))
	for _, s := range all {
		byName[s.name] = s
	}
	out := make([]seeder, 0, len(names))
	for _, n := range names {
		s, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("seeder %q is not registered", n)
		}
		out = append(out, s)
	}
	return out, nil
}
