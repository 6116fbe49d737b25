// Package jobs provides a small ticker-based background worker used to run
// the retry processor on a fixed cadence. The interval is real configuration,
// not a placeholder: whatever RETRY_INTERVAL says is when the next pass runs.
// The worker supports graceful shutdown and is safe to stop more than once.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker runs a work function at a fixed interval until stopped.
type Worker struct {
	name     string
	interval time.Duration
	workFunc func(ctx context.Context) error

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopOnce sync.Once
	stopChan chan struct{}
	started  bool
}

// New creates a worker that invokes workFunc every interval.
func New(name string, interval time.Duration, workFunc func(ctx context.Context) error) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		workFunc: workFunc,
		stopChan: make(chan struct{}),
	}
}

// Start begins the execution loop. It blocks until the context is cancelled
// or Stop is called, so callers normally run it in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		log.Warn().Str("worker", w.name).Msg("worker already started")
		return
	}
	w.started = true
	w.mu.Unlock()

	log.Info().Str("worker", w.name).Dur("interval", w.interval).Msg("worker starting")
	defer log.Info().Str("worker", w.name).Msg("worker stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			// Re-check the stop signal so a Stop() racing the tick does not
			// start a fresh pass.
			select {
			case <-w.stopChan:
				return
			default:
			}
			w.run(ctx)
		}
	}
}

// run executes one pass, registering with the wait group so Stop can wait
// for in-flight work.
func (w *Worker) run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	select {
	case <-ctx.Done():
		return
	default:
	}

	if err := w.workFunc(ctx); err != nil {
		log.Error().Err(err).Str("worker", w.name).Msg("worker pass failed")
	}
}

// Stop shuts the worker down, waiting for any in-progress pass to finish.
// Safe to call multiple times. Calling Stop before Start is a no-op that
// leaves the worker stoppable later.
func (w *Worker) Stop() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.wg.Wait()
	})
}

// Name returns the worker's name.
func (w *Worker) Name() string { return w.name }
