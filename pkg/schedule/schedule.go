// Package schedule runs named tasks at fixed intervals.
//
//	s := schedule.New(log)
//	s.Every(time.Minute, "settlement-sweep", sweeper.Sweep)
//	s.Start(ctx)
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task receives the scheduler's context so it stops with the app.
type Task func(ctx context.Context)

type entry struct {
	name     string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	running bool // overlap guard: a slow run skips the next tick
}

type Scheduler struct {
	log     *slog.Logger
	entries []*entry
}

func New(log *slog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Every registers task to run once per interval, starting one interval after
// Start. Registration is not safe after Start.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) {
	s.entries = append(s.entries, &entry{name: name, interval: interval, task: task})
}

// Start launches one goroutine per entry and returns immediately. Tasks stop
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, e := range s.entries {
		go s.run(ctx, e)
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.running {
				e.mu.Unlock()
				continue
			}
			e.running = true
			e.mu.Unlock()

			func() {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("scheduled task panicked", "task", e.name, "error", r)
					}
					e.mu.Lock()
					e.running = false
					e.mu.Unlock()
				}()
				e.task(ctx)
			}()
		}
	}
}
