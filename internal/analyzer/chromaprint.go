package analyzer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
	"skipdetect/internal/services"
)

// ChromaprintAnalyzer finds segments shared across the episodes of a season
// by cross-correlating audio fingerprints. It only makes sense for
// episodes: a movie has no sibling to correlate against.
type ChromaprintAnalyzer struct {
	backend MediaBackend
	opts    Options
	logger  *slog.Logger
}

// NewChromaprintAnalyzer constructs the fingerprint cross-correlation stage.
func NewChromaprintAnalyzer(backend MediaBackend, opts Options, logger *slog.Logger) *ChromaprintAnalyzer {
	return &ChromaprintAnalyzer{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "chromaprint"),
	}
}

func (a *ChromaprintAnalyzer) Name() string { return "chromaprint" }

func (a *ChromaprintAnalyzer) Analyze(
	ctx context.Context,
	items []*queue.Item,
	mode segments.Mode,
) ([]*queue.Item, []segments.Segment, error) {
	if len(items) == 1 && items[0].IsEpisode {
		// A lone episode cannot be cross-correlated. Protect it from the
		// blacklist: a future library scan may add a sibling.
		items[0].SkipBlacklist = true
		a.logger.Debug("single episode in unit, deferring to a later run",
			logging.String("series", items[0].SeriesName),
			logging.Int("season", items[0].SeasonNumber))
		return items, nil, nil
	}

	prints := make(map[uuid.UUID][]uint32, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		start, length := fingerprintWindow(item, mode)
		fp, err := a.backend.Fingerprint(ctx, item.Path, start, length)
		if err != nil {
			// The whole unit shares one audio profile; one unreadable file
			// makes the remaining correlations unreliable.
			return nil, nil, services.Wrap(services.ErrFingerprint, "chromaprint", "extract", item.Name, err)
		}
		prints[item.ItemID] = fp
	}

	matched := make(map[uuid.UUID]segments.TimeRange)
	anchor := items[0]
	for _, candidate := range items[1:] {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if a.matchPair(anchor, candidate, prints, matched) {
			continue
		}
		// The anchor may be the odd one out (a recap-heavy opener, say).
		// Fall back to comparing against any item that already matched.
		for _, other := range items {
			if other.ItemID == candidate.ItemID || other.ItemID == anchor.ItemID {
				continue
			}
			if _, ok := matched[other.ItemID]; !ok {
				continue
			}
			if a.matchPair(other, candidate, prints, matched) {
				break
			}
		}
	}

	var unresolved []*queue.Item
	var found []segments.Segment
	for _, item := range items {
		relative, ok := matched[item.ItemID]
		if !ok {
			unresolved = append(unresolved, item)
			continue
		}
		absolute := relative.Shift(windowOffset(item, mode)).Round()
		found = append(found, segments.NewSegment(item.ItemID, item.IsEpisode, absolute))
	}
	if len(found) > 0 {
		a.logger.Info("cross-correlation resolved items",
			logging.String("series", items[0].SeriesName),
			logging.Int("season", items[0].SeasonNumber),
			logging.String("mode", mode.String()),
			logging.Int("resolved", len(found)),
			logging.Int("unresolved", len(unresolved)))
	}
	return unresolved, found, nil
}

// matchPair correlates two items and records window-relative ranges for
// both on success. An already-matched side keeps its existing range.
func (a *ChromaprintAnalyzer) matchPair(
	left, right *queue.Item,
	prints map[uuid.UUID][]uint32,
	matched map[uuid.UUID]segments.TimeRange,
) bool {
	rangeLeft, rangeRight, ok := findSharedSegment(
		prints[left.ItemID], prints[right.ItemID], a.opts.MinSegmentSeconds)
	if !ok {
		return false
	}
	if _, exists := matched[left.ItemID]; !exists {
		matched[left.ItemID] = rangeLeft
	}
	if _, exists := matched[right.ItemID]; !exists {
		matched[right.ItemID] = rangeRight
	}
	return true
}

// fingerprintWindow returns the sampled window of the file for the mode:
// the head of the file for intros, the tail for credits.
func fingerprintWindow(item *queue.Item, mode segments.Mode) (start, length float64) {
	if mode == segments.ModeCredits {
		return item.CreditsFingerprintStart, item.Duration - item.CreditsFingerprintStart
	}
	return 0, item.IntroFingerprintEnd
}

// windowOffset translates window-relative match positions back onto the
// file's own timeline.
func windowOffset(item *queue.Item, mode segments.Mode) float64 {
	if mode == segments.ModeCredits {
		return item.CreditsFingerprintStart
	}
	return 0
}
