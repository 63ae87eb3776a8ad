package analyzer

import (
	"context"
	"log/slog"

	"skipdetect/internal/fftool"
	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
)

// ChapterAnalyzer resolves items from embedded chapter markers. It is the
// cheapest stage and always runs first: when an author already labeled the
// intro or credits, no signal processing is needed.
type ChapterAnalyzer struct {
	backend MediaBackend
	opts    Options
	logger  *slog.Logger
}

// NewChapterAnalyzer constructs the structural-metadata stage.
func NewChapterAnalyzer(backend MediaBackend, opts Options, logger *slog.Logger) *ChapterAnalyzer {
	return &ChapterAnalyzer{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "chapter"),
	}
}

func (a *ChapterAnalyzer) Name() string { return "chapter" }

func (a *ChapterAnalyzer) Analyze(
	ctx context.Context,
	items []*queue.Item,
	mode segments.Mode,
) ([]*queue.Item, []segments.Segment, error) {
	var unresolved []*queue.Item
	var found []segments.Segment

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		chapters, err := a.backend.Chapters(ctx, item.Path)
		if err != nil {
			// Chapter extraction is best effort; later stages still get a
			// chance at this item.
			a.logger.Debug("chapter extraction failed",
				logging.String("name", item.Name),
				logging.Error(err))
			unresolved = append(unresolved, item)
			continue
		}

		r, ok := a.findCandidate(chapters, item, mode)
		if !ok {
			unresolved = append(unresolved, item)
			continue
		}
		found = append(found, segments.NewSegment(item.ItemID, item.IsEpisode, r.Round()))
		a.logger.Debug("resolved from chapter markers",
			logging.String("name", item.Name),
			logging.String("mode", mode.String()),
			logging.Float64("start", r.Start),
			logging.Float64("end", r.End))
	}
	return unresolved, found, nil
}

func (a *ChapterAnalyzer) findCandidate(chapters []fftool.Chapter, item *queue.Item, mode segments.Mode) (segments.TimeRange, bool) {
	if len(chapters) == 0 {
		return segments.TimeRange{}, false
	}
	if mode == segments.ModeCredits {
		return a.findCreditsCandidate(chapters, item)
	}
	return a.findIntroCandidate(chapters, item)
}

// findIntroCandidate accepts a chapter whose title matches the intro
// pattern and that lies inside the intro analysis window. The chapter's
// effective end is the next chapter's start, which is more reliable than
// the stored end for sloppily authored files.
func (a *ChapterAnalyzer) findIntroCandidate(chapters []fftool.Chapter, item *queue.Item) (segments.TimeRange, bool) {
	for i, chapter := range chapters {
		if !a.opts.IntroPattern.MatchString(chapter.Title) {
			continue
		}
		if chapter.Start > item.IntroFingerprintEnd {
			continue
		}
		end := chapter.End
		if i+1 < len(chapters) {
			end = chapters[i+1].Start
		}
		r := segments.TimeRange{Start: chapter.Start, End: end}
		if r.Duration() < a.opts.MinSegmentSeconds || r.End > item.IntroFingerprintEnd {
			continue
		}
		return r, true
	}
	return segments.TimeRange{}, false
}

// findCreditsCandidate accepts a title-matched chapter in the tail of the
// file, or an unlabeled final chapter positioned inside the credits
// window. Credits run to the end of the file.
func (a *ChapterAnalyzer) findCreditsCandidate(chapters []fftool.Chapter, item *queue.Item) (segments.TimeRange, bool) {
	candidate := -1
	for i, chapter := range chapters {
		if a.opts.CreditsPattern.MatchString(chapter.Title) && chapter.Start >= item.Duration/2 {
			candidate = i
			break
		}
	}
	if candidate < 0 {
		last := len(chapters) - 1
		if last > 0 && chapters[last].Title == "" && chapters[last].Start >= item.CreditsFingerprintStart {
			candidate = last
		}
	}
	if candidate < 0 {
		return segments.TimeRange{}, false
	}

	r := segments.TimeRange{Start: chapters[candidate].Start, End: item.Duration}
	if r.Duration() < a.opts.MinSegmentSeconds {
		return segments.TimeRange{}, false
	}
	return r, true
}
