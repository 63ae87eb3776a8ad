package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"skipdetect/internal/logging"
	"skipdetect/internal/segments"
	"skipdetect/internal/services"
)

// analysisRunner is the slice of the Scheduler the Runner drives.
type analysisRunner interface {
	Run(ctx context.Context, mode segments.Mode, progress func(float64)) (Summary, error)
}

// ItemCleaner removes all memory of an item when it leaves the library.
type ItemCleaner interface {
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

// Runner serializes analysis passes. However many triggers arrive while a
// pass is in flight, exactly one follow-up pass runs afterwards; triggers
// within the debounce window collapse into one.
type Runner struct {
	sched    analysisRunner
	segs     segments.Store
	cleaner  ItemCleaner
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	again   bool
	wg      sync.WaitGroup
}

// NewRunner constructs a runner with the given debounce window.
func NewRunner(sched analysisRunner, segs segments.Store, cleaner ItemCleaner, debounce time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		sched:    sched,
		segs:     segs,
		cleaner:  cleaner,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "runner"),
	}
}

// Schedule requests an analysis pass after the debounce window. A trigger
// arriving inside the window restarts it, so a burst of library changes
// results in a single pass.
func (r *Runner) Schedule(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Reset(r.debounce)
		return
	}
	r.timer = time.AfterFunc(r.debounce, func() { r.start(ctx) })
}

// TriggerNow requests an immediate pass, bypassing the debounce window.
func (r *Runner) TriggerNow(ctx context.Context) {
	r.start(ctx)
}

func (r *Runner) start(ctx context.Context) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.running {
		// A pass is in flight; remember to go again once it finishes.
		r.again = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runLoop(ctx)
	}()
}

func (r *Runner) runLoop(ctx context.Context) {
	for {
		r.AnalyzeAll(ctx)

		r.mu.Lock()
		if !r.again || ctx.Err() != nil {
			r.running = false
			r.again = false
			r.mu.Unlock()
			return
		}
		r.again = false
		r.mu.Unlock()
	}
}

// AnalyzeAll runs every analysis mode in order, introductions before
// credits. Per-mode failures are logged; a canceled context stops the
// sequence.
func (r *Runner) AnalyzeAll(ctx context.Context) {
	for _, mode := range segments.Modes() {
		if ctx.Err() != nil {
			return
		}
		summary, err := r.sched.Run(ctx, mode, nil)
		switch {
		case err == nil:
			r.logger.Info("analysis pass finished",
				logging.String("mode", mode.String()),
				logging.Int("resolved", summary.Resolved),
				logging.Int("blacklisted", summary.Blacklisted))
		case errors.Is(err, services.ErrNoWork):
			r.logger.Info("nothing to analyze",
				logging.String("mode", mode.String()))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return
		default:
			r.logger.Error("analysis pass failed",
				logging.String("mode", mode.String()),
				logging.Error(err))
			if services.IsFatal(err) {
				return
			}
		}
	}
}

// OnItemRemoved forgets everything known about an item: stored segments and
// blacklist entries. Called when the library deletes the underlying media,
// so a re-added item is analyzed from scratch.
func (r *Runner) OnItemRemoved(ctx context.Context, itemID uuid.UUID) {
	if r.segs != nil {
		if err := r.segs.DeleteForItem(ctx, itemID); err != nil {
			r.logger.Error("failed to delete segments for removed item",
				logging.String("item_id", itemID.String()),
				logging.Error(err))
		}
	}
	if r.cleaner != nil {
		if err := r.cleaner.DeleteItem(ctx, itemID); err != nil {
			r.logger.Error("failed to delete blacklist entries for removed item",
				logging.String("item_id", itemID.String()),
				logging.Error(err))
		}
	}
}

// Wait blocks until any in-flight pass completes. Used during shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}
