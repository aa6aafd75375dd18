// Package sweep runs periodic batch passes over eligible rows,
// independently of any request.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Body is one pass of a sweep. It selects its own work and must be safe
// to re-run: the per-item idempotency gates live in the body, not here.
type Body func(ctx context.Context) error

// Runner triggers a Body on a fixed period. A pass that returns an error
// is logged and does not stop the ticker; the next period retries.
type Runner struct {
	name   string
	period time.Duration
	body   Body
	logger *slog.Logger

	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
	startOnce  sync.Once
	closeOnce  sync.Once
}

func NewRunner(name string, period time.Duration, body Body) *Runner {
	return &Runner{
		name:   name,
		period: period,
		body:   body,
		logger: slog.Default().With(slog.String("caller", name)),
	}
}

// Start launches the sweep goroutine. The body runs once immediately and
// then on every tick until Close.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancelFunc = cancel
		r.logger.Info("Start sweep", slog.Duration("period", r.period))
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer r.logger.Info("Sweep stopped")
			r.run(ctx)
			ticker := time.NewTicker(r.period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					r.run(ctx)
				}
			}
		}()
	})
}

// Close stops the sweep and waits for an in-flight pass to finish.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		if r.cancelFunc != nil {
			r.cancelFunc()
		}
		r.wg.Wait()
	})
}

func (r *Runner) run(ctx context.Context) {
	if err := r.body(ctx); err != nil {
		r.logger.Error("Sweep pass failed", slog.Any("error", err))
	}
}
