package analyzer

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"skipdetect/internal/fftool"
	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
)

type fakeBackend struct {
	prints      map[string][]uint32
	printErr    map[string]error
	chapters    map[string][]fftool.Chapter
	chaptersErr map[string]error
	blacks      map[string][]float64
	blacksErr   map[string]error

	fingerprintCalls int
	blackFrameCalls  int
}

func (b *fakeBackend) Fingerprint(_ context.Context, path string, _, _ float64) ([]uint32, error) {
	b.fingerprintCalls++
	if err := b.printErr[path]; err != nil {
		return nil, err
	}
	return b.prints[path], nil
}

func (b *fakeBackend) Chapters(_ context.Context, path string) ([]fftool.Chapter, error) {
	if err := b.chaptersErr[path]; err != nil {
		return nil, err
	}
	return b.chapters[path], nil
}

func (b *fakeBackend) BlackFrames(_ context.Context, path string, _, _ float64) ([]float64, error) {
	b.blackFrameCalls++
	if err := b.blacksErr[path]; err != nil {
		return nil, err
	}
	return b.blacks[path], nil
}

func testOptions() Options {
	return Options{
		MinSegmentSeconds: 15,
		IntroPattern:      regexp.MustCompile(`(?i)^(intro|opening)`),
		CreditsPattern:    regexp.MustCompile(`(?i)credits`),
	}
}

func episodeItem(series string, season int, path string) *queue.Item {
	return &queue.Item{
		ItemID:                  uuid.New(),
		Name:                    path,
		SeriesName:              series,
		SeasonNumber:            season,
		Path:                    path,
		Duration:                1200,
		IntroFingerprintEnd:     180,
		CreditsFingerprintStart: 960,
		IsEpisode:               true,
	}
}

type fakeAnalyzer struct {
	name    string
	calls   [][]*queue.Item
	resolve func(item *queue.Item) bool
	err     error
}

func (a *fakeAnalyzer) Name() string { return a.name }

func (a *fakeAnalyzer) Analyze(
	_ context.Context,
	items []*queue.Item,
	_ segments.Mode,
) ([]*queue.Item, []segments.Segment, error) {
	a.calls = append(a.calls, items)
	if a.err != nil {
		return nil, nil, a.err
	}
	var unresolved []*queue.Item
	var found []segments.Segment
	for _, item := range items {
		if a.resolve != nil && a.resolve(item) {
			found = append(found, segments.NewSegment(item.ItemID, item.IsEpisode, segments.TimeRange{Start: 1, End: 60}))
			continue
		}
		unresolved = append(unresolved, item)
	}
	return unresolved, found, nil
}

func TestRunSkipsAnalyzedItems(t *testing.T) {
	a := &fakeAnalyzer{name: "fake"}
	items := []*queue.Item{episodeItem("Show", 1, "e1"), episodeItem("Show", 1, "e2")}
	for _, item := range items {
		item.IsAnalyzed = true
	}

	found, unresolved, err := Run(context.Background(), []Analyzer{a}, items, segments.ModeIntroduction, testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(found) != 0 || len(unresolved) != 0 {
		t.Fatalf("fully analyzed unit should be a no-op, got %d found, %d unresolved", len(found), len(unresolved))
	}
	if len(a.calls) != 0 {
		t.Fatalf("analyzer called %d times for a fully analyzed unit", len(a.calls))
	}
}

func TestRunSeasonZeroGate(t *testing.T) {
	a := &fakeAnalyzer{name: "fake"}
	items := []*queue.Item{episodeItem("Show", 0, "s1"), episodeItem("Show", 0, "s2")}

	found, unresolved, err := Run(context.Background(), []Analyzer{a}, items, segments.ModeIntroduction, testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(found) != 0 || len(unresolved) != 0 || len(a.calls) != 0 {
		t.Fatal("specials must be skipped, not analyzed or blacklisted")
	}

	opts := testOptions()
	opts.AnalyzeSeasonZero = true
	if _, _, err := Run(context.Background(), []Analyzer{a}, items, segments.ModeIntroduction, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.calls) != 1 {
		t.Fatalf("opting in should analyze specials, got %d calls", len(a.calls))
	}
}

func TestRunFirstResolverWins(t *testing.T) {
	items := []*queue.Item{episodeItem("Show", 1, "e1"), episodeItem("Show", 1, "e2")}
	first := &fakeAnalyzer{name: "first", resolve: func(item *queue.Item) bool { return item.Path == "e1" }}
	second := &fakeAnalyzer{name: "second", resolve: func(*queue.Item) bool { return true }}

	found, unresolved, err := Run(context.Background(), []Analyzer{first, second}, items, segments.ModeIntroduction, testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(found) != 2 || len(unresolved) != 0 {
		t.Fatalf("got %d found, %d unresolved", len(found), len(unresolved))
	}
	if len(second.calls) != 1 || len(second.calls[0]) != 1 || second.calls[0][0].Path != "e2" {
		t.Fatalf("second stage should only see the item the first left behind, got %+v", second.calls)
	}
}

func TestRunPropagatesAnalyzerError(t *testing.T) {
	wantErr := errors.New("boom")
	a := &fakeAnalyzer{name: "fake", err: wantErr}
	items := []*queue.Item{episodeItem("Show", 1, "e1"), episodeItem("Show", 1, "e2")}

	if _, _, err := Run(context.Background(), []Analyzer{a}, items, segments.ModeIntroduction, testOptions()); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestForUnitComposition(t *testing.T) {
	backend := &fakeBackend{}
	logger := logging.NewNop()

	names := func(analyzers []Analyzer) []string {
		out := make([]string, len(analyzers))
		for i, a := range analyzers {
			out[i] = a.Name()
		}
		return out
	}

	cases := []struct {
		mode      segments.Mode
		isEpisode bool
		want      []string
	}{
		{segments.ModeIntroduction, true, []string{"chapter", "chromaprint"}},
		{segments.ModeIntroduction, false, []string{"chapter"}},
		{segments.ModeCredits, true, []string{"chapter", "chromaprint", "blackframe"}},
		{segments.ModeCredits, false, []string{"chapter", "blackframe"}},
	}
	for _, tc := range cases {
		got := names(ForUnit(tc.mode, tc.isEpisode, backend, testOptions(), logger))
		if len(got) != len(tc.want) {
			t.Fatalf("%s episode=%v: got %v, want %v", tc.mode, tc.isEpisode, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s episode=%v: got %v, want %v", tc.mode, tc.isEpisode, got, tc.want)
			}
		}
	}
}
