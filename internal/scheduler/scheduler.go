package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"skipdetect/internal/analyzer"
	"skipdetect/internal/blacklist"
	"skipdetect/internal/config"
	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
	"skipdetect/internal/services"
)

// QueueBuilder is the queue construction and verification boundary.
// Implemented by queue.Builder; swapped for fakes in tests.
type QueueBuilder interface {
	Build(ctx context.Context, mode segments.Mode) (map[uuid.UUID][]*queue.Item, error)
	Verify(ctx context.Context, items []*queue.Item, mode segments.Mode, segs queue.SegmentChecker, blacklist queue.BlacklistChecker) ([]*queue.Item, bool)
}

// Blacklist is the scheduler's view of the no-result memory.
type Blacklist interface {
	Contains(ctx context.Context, itemID uuid.UUID, mode segments.Mode) (bool, error)
	Record(ctx context.Context, entries []blacklist.Entry) error
	Enabled() bool
}

// Summary describes one completed analysis run.
type Summary struct {
	Mode        segments.Mode
	Units       int
	QueuedItems int
	Resolved    int
	Blacklisted int
	Skipped     int
}

// Scheduler fans analysis units out over a bounded worker pool. Units are
// independent; items within a unit are analyzed together.
type Scheduler struct {
	builder     QueueBuilder
	backend     analyzer.MediaBackend
	segs        segments.Store
	blacklist   Blacklist
	opts        analyzer.Options
	parallelism int
	logger      *slog.Logger
}

// New constructs a scheduler from application config.
func New(
	cfg *config.Config,
	builder QueueBuilder,
	backend analyzer.MediaBackend,
	segs segments.Store,
	bl Blacklist,
	logger *slog.Logger,
) *Scheduler {
	parallelism := cfg.Analysis.MaxParallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scheduler{
		builder:     builder,
		backend:     backend,
		segs:        segs,
		blacklist:   bl,
		opts:        analyzer.OptionsFromConfig(cfg),
		parallelism: parallelism,
		logger:      logging.NewComponentLogger(logger, "scheduler"),
	}
}

// Run executes one full analysis pass for the mode. progress, when non-nil,
// receives completion percentages in [0, 100]; reported values never
// decrease, and only successfully processed items count toward completion.
// Returns ErrNoWork when the queue comes up empty.
func (s *Scheduler) Run(ctx context.Context, mode segments.Mode, progress func(float64)) (Summary, error) {
	units, err := s.builder.Build(ctx, mode)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Mode: mode, Units: len(units)}
	for _, items := range units {
		summary.QueuedItems += len(items)
	}
	if summary.QueuedItems == 0 {
		return summary, services.Wrap(services.ErrNoWork, "scheduler", "build queue",
			"no eligible items found, check the library and skip settings", nil)
	}
	s.logger.Info("starting analysis run",
		logging.String("mode", mode.String()),
		logging.Int("units", summary.Units),
		logging.Int("items", summary.QueuedItems),
		logging.Int("parallelism", s.parallelism))

	// Deterministic dispatch order keeps logs and progress stable.
	keys := make([]uuid.UUID, 0, len(units))
	for key := range units {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	reporter := newProgressReporter(progress, summary.QueuedItems)
	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			break
		}
		items := units[key]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			result := s.processUnit(ctx, mode, items)
			mu.Lock()
			summary.Resolved += result.resolved
			summary.Blacklisted += result.blacklisted
			summary.Skipped += result.skipped
			mu.Unlock()
			reporter.add(result.processed)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	s.logger.Info("analysis run complete",
		logging.String("mode", mode.String()),
		logging.Int("resolved", summary.Resolved),
		logging.Int("blacklisted", summary.Blacklisted),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

type unitResult struct {
	resolved    int
	blacklisted int
	skipped     int
	// processed counts the unit's items toward run progress. Units that
	// fail outright contribute nothing, so a partially failed run ends
	// below 100 percent.
	processed int
}

func (s *Scheduler) processUnit(ctx context.Context, mode segments.Mode, items []*queue.Item) unitResult {
	verified, anyUnanalyzed := s.builder.Verify(ctx, items, mode, s.segs, s.blacklist)
	if len(verified) == 0 {
		return unitResult{skipped: len(items), processed: len(items)}
	}
	if !anyUnanalyzed {
		s.logger.Debug("unit already analyzed",
			logging.String("name", verified[0].DisplayName()),
			logging.String("mode", mode.String()))
		return unitResult{skipped: len(verified), processed: len(items)}
	}

	analyzers := analyzer.ForUnit(mode, verified[0].IsEpisode, s.backend, s.opts, s.logger)
	found, unresolved, err := analyzer.Run(ctx, analyzers, verified, mode, s.opts)
	if err != nil {
		if errors.Is(err, services.ErrFingerprint) {
			// One unreadable file spoils only its own unit.
			s.logger.Warn("skipping unit after fingerprint failure",
				logging.String("name", verified[0].DisplayName()),
				logging.Error(err))
			return unitResult{skipped: len(verified)}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return unitResult{}
		}
		s.logger.Error("unit analysis failed",
			logging.String("name", verified[0].DisplayName()),
			logging.Error(err))
		return unitResult{skipped: len(verified)}
	}

	result := unitResult{resolved: len(found), processed: len(items)}
	if len(found) > 0 {
		if err := s.segs.Create(ctx, found, mode); err != nil {
			s.logger.Error("failed to persist segments",
				logging.String("name", verified[0].DisplayName()),
				logging.Error(err))
		}
	}
	result.blacklisted = s.recordUnresolved(ctx, mode, unresolved)
	return result
}

// recordUnresolved remembers items no stage could resolve, so the next run
// does not redo the work. Items flagged SkipBlacklist stay retryable.
func (s *Scheduler) recordUnresolved(ctx context.Context, mode segments.Mode, unresolved []*queue.Item) int {
	if s.blacklist == nil || !s.blacklist.Enabled() {
		return 0
	}
	var entries []blacklist.Entry
	for _, item := range unresolved {
		if item.SkipBlacklist {
			continue
		}
		entries = append(entries, blacklist.Entry{
			ItemID: item.ItemID,
			Mode:   mode,
			Name:   item.DisplayName(),
		})
		s.logger.Debug("blacklisting item",
			logging.String("name", item.Name),
			logging.String("mode", mode.String()))
	}
	if len(entries) == 0 {
		return 0
	}
	if err := s.blacklist.Record(ctx, entries); err != nil {
		s.logger.Error("failed to record blacklist entries", logging.Error(err))
		return 0
	}
	return len(entries)
}

// progressReporter serializes progress callbacks from concurrent workers.
// Progress is the share of queued items whose unit finished without error,
// as a percentage, clamped and monotonically increasing. A run with failed
// units ends below 100.
type progressReporter struct {
	mu    sync.Mutex
	fn    func(float64)
	total int
	done  int
	last  float64
}

func newProgressReporter(fn func(float64), total int) *progressReporter {
	return &progressReporter{fn: fn, total: total}
}

func (p *progressReporter) add(items int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += items
	p.report(float64(p.done) / float64(p.total) * 100)
}

func (p *progressReporter) report(pct float64) {
	if p.fn == nil {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct <= p.last {
		return
	}
	p.last = pct
	p.fn(pct)
}
