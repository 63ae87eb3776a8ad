package analyzer

import (
	"context"
	"log/slog"

	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
)

// BlackFrameAnalyzer finds the start of end credits from sustained black
// frames in the tail of the file. It is the credits fallback for content
// without audio similarity: movies, or seasons with a single episode.
type BlackFrameAnalyzer struct {
	backend MediaBackend
	opts    Options
	logger  *slog.Logger
}

// NewBlackFrameAnalyzer constructs the visual-transition stage.
func NewBlackFrameAnalyzer(backend MediaBackend, opts Options, logger *slog.Logger) *BlackFrameAnalyzer {
	return &BlackFrameAnalyzer{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "blackframe"),
	}
}

func (a *BlackFrameAnalyzer) Name() string { return "blackframe" }

func (a *BlackFrameAnalyzer) Analyze(
	ctx context.Context,
	items []*queue.Item,
	mode segments.Mode,
) ([]*queue.Item, []segments.Segment, error) {
	if mode != segments.ModeCredits {
		return items, nil, nil
	}

	var unresolved []*queue.Item
	var found []segments.Segment
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		windowStart := item.CreditsFingerprintStart
		length := item.Duration - windowStart
		starts, err := a.backend.BlackFrames(ctx, item.Path, windowStart, length)
		if err != nil {
			a.logger.Warn("black frame scan failed",
				logging.String("name", item.Name),
				logging.Error(err))
			unresolved = append(unresolved, item)
			continue
		}

		r, ok := a.creditsFromBlackFrames(starts, item)
		if !ok {
			unresolved = append(unresolved, item)
			continue
		}
		found = append(found, segments.NewSegment(item.ItemID, item.IsEpisode, r.Round()))
		a.logger.Debug("resolved from black frames",
			logging.String("name", item.Name),
			logging.Float64("start", r.Start))
	}
	return unresolved, found, nil
}

// creditsFromBlackFrames picks the earliest black run in the credits
// window that still leaves a plausible credits duration behind it.
func (a *BlackFrameAnalyzer) creditsFromBlackFrames(starts []float64, item *queue.Item) (segments.TimeRange, bool) {
	for _, start := range starts {
		if start <= 0 {
			continue
		}
		r := segments.TimeRange{Start: start, End: item.Duration}
		if r.Duration() >= a.opts.MinSegmentSeconds {
			return r, true
		}
	}
	return segments.TimeRange{}, false
}
