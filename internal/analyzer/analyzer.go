package analyzer

import (
	"context"
	"log/slog"
	"regexp"

	"skipdetect/internal/config"
	"skipdetect/internal/fftool"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
)

// MediaBackend is the slice of the external media tool the analyzers use.
type MediaBackend interface {
	Fingerprint(ctx context.Context, path string, start, length float64) ([]uint32, error)
	Chapters(ctx context.Context, path string) ([]fftool.Chapter, error)
	BlackFrames(ctx context.Context, path string, start, length float64) ([]float64, error)
}

// Analyzer is one segment-finding strategy. It receives only items earlier
// stages could not resolve and returns the subset it could not resolve
// either, plus the segments it found.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, items []*queue.Item, mode segments.Mode) (unresolved []*queue.Item, found []segments.Segment, err error)
}

// Options carries the analysis thresholds shared by all analyzers.
type Options struct {
	MinSegmentSeconds float64
	AnalyzeSeasonZero bool
	IntroPattern      *regexp.Regexp
	CreditsPattern    *regexp.Regexp
}

// OptionsFromConfig derives analyzer options from application config.
// Invalid chapter patterns were rejected at config validation time.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinSegmentSeconds: float64(cfg.Analysis.MinSegmentSeconds),
		AnalyzeSeasonZero: cfg.Analysis.AnalyzeSeasonZero,
		IntroPattern:      regexp.MustCompile(cfg.Analysis.IntroChapterPattern),
		CreditsPattern:    regexp.MustCompile(cfg.Analysis.CreditsChapterPattern),
	}
}

// ForUnit composes the analyzer chain for one analysis unit. Chapter marks
// are cheapest and always run first. Cross-correlation needs siblings, so
// movies skip it. Black-frame detection only helps for credits.
func ForUnit(mode segments.Mode, isEpisode bool, backend MediaBackend, opts Options, logger *slog.Logger) []Analyzer {
	analyzers := []Analyzer{NewChapterAnalyzer(backend, opts, logger)}
	if isEpisode {
		analyzers = append(analyzers, NewChromaprintAnalyzer(backend, opts, logger))
	}
	if mode == segments.ModeCredits {
		analyzers = append(analyzers, NewBlackFrameAnalyzer(backend, opts, logger))
	}
	return analyzers
}

// Run drives a unit through the analyzer chain. Items already covered by a
// persisted segment or blacklist entry never reach an analyzer. The
// returned unresolved items are the blacklist candidates for this run.
func Run(
	ctx context.Context,
	analyzers []Analyzer,
	items []*queue.Item,
	mode segments.Mode,
	opts Options,
) (found []segments.Segment, unresolved []*queue.Item, err error) {
	pending := make([]*queue.Item, 0, len(items))
	for _, item := range items {
		if !item.IsAnalyzed {
			pending = append(pending, item)
		}
	}
	if len(pending) == 0 {
		return nil, nil, nil
	}

	// Specials are skipped entirely unless opted in; they are not
	// blacklisted either, so opting in later re-attempts them.
	first := pending[0]
	if first.IsEpisode && first.SeasonNumber == 0 && !opts.AnalyzeSeasonZero {
		return nil, nil, nil
	}

	for _, a := range analyzers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if len(pending) == 0 {
			break
		}
		var segs []segments.Segment
		pending, segs, err = a.Analyze(ctx, pending, mode)
		if err != nil {
			return nil, nil, err
		}
		found = append(found, segs...)
	}
	return found, pending, nil
}
