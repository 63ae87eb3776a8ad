package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"skipdetect/internal/config"
	"skipdetect/internal/library"
	"skipdetect/internal/logging"
	"skipdetect/internal/segments"
)

const shortItemCutoff = 5 * 60 // files under five minutes are analyzed in full

// BackendChecker is the availability precondition of the fingerprint
// backend. Checked once per build; failure aborts the whole run.
type BackendChecker interface {
	CheckAvailable(ctx context.Context) error
}

// SegmentChecker is the read-only view of already-persisted segments used
// during queue verification.
type SegmentChecker interface {
	GetForItem(ctx context.Context, itemID uuid.UUID, mode segments.Mode) (segments.TimeRange, bool, error)
}

// BlacklistChecker answers whether an item/mode pair previously yielded no
// segment.
type BlacklistChecker interface {
	Contains(ctx context.Context, itemID uuid.UUID, mode segments.Mode) (bool, error)
}

// Builder enumerates eligible media and groups it into analysis units: one
// unit per season, one unit per movie.
type Builder struct {
	cfg    *config.Config
	index  library.Index
	backend BackendChecker
	logger *slog.Logger

	// statFunc is swappable for tests.
	statFunc func(string) error
}

// NewBuilder constructs a queue builder.
func NewBuilder(cfg *config.Config, index library.Index, backend BackendChecker, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:     cfg,
		index:   index,
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "queue"),
		statFunc: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
	}
}

// Build enumerates every eligible item for the mode and returns analysis
// units keyed by group id (season id for episodes, item id for movies).
func (b *Builder) Build(ctx context.Context, mode segments.Mode) (map[uuid.UUID][]*Item, error) {
	if b.backend != nil {
		if err := b.backend.CheckAvailable(ctx); err != nil {
			return nil, err
		}
	}

	settings := parseSkipSettings(
		b.cfg.Analysis.Libraries,
		b.cfg.Analysis.SkippedShows,
		b.cfg.Analysis.SkippedMovies,
		b.logger,
	)
	if len(settings.libraries) > 0 {
		b.logger.Info("limiting analysis to selected libraries",
			logging.Any("libraries", settings.libraries))
	}
	if b.cfg.Analysis.SettingsChangedFromDefault() {
		b.logger.Info("analysis settings changed from defaults",
			logging.Int("percent", b.cfg.Analysis.Percent),
			logging.Int("length_limit_minutes", b.cfg.Analysis.LengthLimitMinutes),
			logging.Int("min_segment_seconds", b.cfg.Analysis.MinSegmentSeconds),
		)
	}

	libraries, err := b.index.Libraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	b.warnAbsentSelections(settings, libraries)

	kinds := []library.Kind{library.KindEpisode}
	if mode == segments.ModeCredits {
		// Movies only have credits; introductions are an episode concept.
		kinds = append(kinds, library.KindMovie)
	}

	units := make(map[uuid.UUID][]*Item)
	for _, lib := range libraries {
		if !settings.librarySelected(lib.Name) {
			b.logger.Debug("library not selected for analysis",
				logging.String("library", lib.Name))
			continue
		}
		b.logger.Info("enqueueing library items",
			logging.String("library", lib.Name),
			logging.String("library_id", lib.ID))

		items, err := b.index.Items(ctx, lib.ID, kinds)
		if err != nil {
			// Per-library failure; the rest of the run continues.
			b.logger.Error("failed to enqueue library items",
				logging.String("library", lib.Name),
				logging.Error(err))
			continue
		}
		for _, item := range items {
			b.enqueue(units, item, settings)
		}
	}
	return units, nil
}

func (b *Builder) warnAbsentSelections(settings skipSettings, libraries []library.Library) {
	for _, selected := range settings.libraries {
		found := false
		for _, lib := range libraries {
			if lib.Name == selected {
				found = true
				break
			}
		}
		if !found {
			b.logger.Warn("selected library does not exist on the server, check spelling",
				logging.String("library", selected))
		}
	}
}

func (b *Builder) enqueue(units map[uuid.UUID][]*Item, item library.Item, settings skipSettings) {
	if item.IsVirtual {
		return
	}

	switch item.Kind {
	case library.KindEpisode:
		if settings.skipShow(item.SeriesName, item.SeasonNumber) {
			b.logger.Info("skipping episode per skip list",
				logging.String("series", item.SeriesName),
				logging.Int("season", item.SeasonNumber),
				logging.String("episode", item.Name))
			return
		}
	case library.KindMovie:
		if settings.skipMovie(item.Name) {
			b.logger.Info("skipping movie per skip list",
				logging.String("movie", item.Name))
			return
		}
	default:
		return
	}

	if item.Path == "" {
		b.logger.Warn("not queuing item, server provided no path",
			logging.String("name", item.Name),
			logging.String("series", item.SeriesName),
			logging.String("item_id", item.ID.String()))
		return
	}
	if item.DurationSeconds <= 0 {
		b.logger.Warn("not queuing item, server provided no duration",
			logging.String("name", item.Name),
			logging.String("series", item.SeriesName),
			logging.String("item_id", item.ID.String()))
		return
	}

	queued := b.newItem(item)
	key := unitKey(item)
	units[key] = append(units[key], queued)
}

func (b *Builder) newItem(item library.Item) *Item {
	isEpisode := item.Kind == library.KindEpisode

	// Intro analysis samples the first X% of the file, capped at Y minutes.
	// Short files are sampled in full; the cap still applies.
	fingerprintDuration := item.DurationSeconds
	if fingerprintDuration >= shortItemCutoff {
		fingerprintDuration *= float64(b.cfg.Analysis.Percent) / 100
	}
	lengthCap := float64(b.cfg.Analysis.LengthLimitMinutes) * 60
	if fingerprintDuration > lengthCap {
		fingerprintDuration = lengthCap
	}

	creditsWindow := float64(b.cfg.Analysis.MovieCreditsMinutes) * 60
	if isEpisode {
		creditsWindow = float64(b.cfg.Analysis.EpisodeCreditsMinutes) * 60
	}
	creditsStart := item.DurationSeconds - creditsWindow
	if creditsStart < 0 {
		creditsStart = 0
	}

	seriesName := item.SeriesName
	seasonNumber := item.SeasonNumber
	if !isEpisode {
		seriesName = ""
		seasonNumber = 0
	}

	return &Item{
		ItemID:                  item.ID,
		Name:                    item.Name,
		SeriesName:              seriesName,
		SeasonNumber:            seasonNumber,
		Path:                    item.Path,
		Duration:                item.DurationSeconds,
		IntroFingerprintEnd:     fingerprintDuration,
		CreditsFingerprintStart: creditsStart,
		IsEpisode:               isEpisode,
	}
}

// unitKey groups episodes by season and movies by themselves.
func unitKey(item library.Item) uuid.UUID {
	if item.Kind == library.KindEpisode && item.SeasonID != uuid.Nil {
		return item.SeasonID
	}
	return item.ID
}

// Verify re-checks that queued items still exist on disk and in the server
// index, and marks items already covered by a persisted segment or a
// blacklist entry as analyzed. Items that vanished since enqueue are
// dropped silently for this run.
func (b *Builder) Verify(
	ctx context.Context,
	items []*Item,
	mode segments.Mode,
	segs SegmentChecker,
	blacklist BlacklistChecker,
) (verified []*Item, anyUnanalyzed bool) {
	for _, item := range items {
		path, err := b.index.ItemPath(ctx, item.ItemID)
		if err != nil {
			b.logger.Debug("skipping item no longer in the library index",
				logging.String("name", item.Name),
				logging.String("item_id", item.ItemID.String()),
				logging.Error(err))
			continue
		}
		if err := b.statFunc(path); err != nil {
			b.logger.Debug("skipping item no longer on disk",
				logging.String("name", item.Name),
				logging.String("path", path),
				logging.Error(err))
			continue
		}

		analyzed := false
		if segs != nil {
			if _, ok, err := segs.GetForItem(ctx, item.ItemID, mode); err == nil && ok {
				analyzed = true
			}
		}
		if !analyzed && blacklist != nil {
			if ok, err := blacklist.Contains(ctx, item.ItemID, mode); err == nil && ok {
				analyzed = true
			}
		}

		item.IsAnalyzed = analyzed
		if !analyzed {
			anyUnanalyzed = true
		}
		verified = append(verified, item)
	}
	return verified, anyUnanalyzed
}
