package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"skipdetect/internal/fftool"
	"skipdetect/internal/logging"
	"skipdetect/internal/queue"
	"skipdetect/internal/segments"
	"skipdetect/internal/services"
)

func segmentByItem(found []segments.Segment) map[uuid.UUID]segments.Segment {
	out := make(map[uuid.UUID]segments.Segment, len(found))
	for _, seg := range found {
		out[seg.ItemID] = seg
	}
	return out
}

func TestChromaprintAnalyzerLoneEpisode(t *testing.T) {
	item := episodeItem("Show", 1, "e1")
	backend := &fakeBackend{}
	a := NewChromaprintAnalyzer(backend, testOptions(), logging.NewNop())

	unresolved, found, err := a.Analyze(context.Background(), []*queue.Item{item}, segments.ModeIntroduction)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(found) != 0 || len(unresolved) != 1 {
		t.Fatalf("got %d unresolved, %d found", len(unresolved), len(found))
	}
	if !item.SkipBlacklist {
		t.Fatal("a lone episode must be protected from the blacklist")
	}
	if backend.fingerprintCalls != 0 {
		t.Fatalf("no fingerprints should be extracted for a lone episode, got %d calls", backend.fingerprintCalls)
	}
}

func TestChromaprintAnalyzerSeasonIntroMatch(t *testing.T) {
	shared := randBlocks(11, 200)
	items := []*queue.Item{
		episodeItem("Show", 1, "e1"),
		episodeItem("Show", 1, "e2"),
		episodeItem("Show", 1, "e3"),
	}
	backend := &fakeBackend{prints: map[string][]uint32{
		"e1": concat(constBlocks(0, 10), shared, constBlocks(0, 10)),
		"e2": concat(constBlocks(0xFFFFFFFF, 20), shared),
		"e3": concat(constBlocks(0xFFFFFFFF, 5), shared, constBlocks(0xFFFFFFFF, 15)),
	}}
	a := NewChromaprintAnalyzer(backend, testOptions(), logging.NewNop())

	unresolved, found, err := a.Analyze(context.Background(), items, segments.ModeIntroduction)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(unresolved) != 0 || len(found) != 3 {
		t.Fatalf("got %d unresolved, %d found", len(unresolved), len(found))
	}
	if backend.fingerprintCalls != 3 {
		t.Fatalf("got %d fingerprint calls, want one per item", backend.fingerprintCalls)
	}

	byItem := segmentByItem(found)
	wantStarts := map[uuid.UUID]float64{
		items[0].ItemID: 10 * fftool.BlockDuration,
		items[1].ItemID: 20 * fftool.BlockDuration,
		items[2].ItemID: 5 * fftool.BlockDuration,
	}
	wantDuration := 200 * fftool.BlockDuration
	for _, item := range items {
		seg, ok := byItem[item.ItemID]
		if !ok {
			t.Fatalf("no segment for %s", item.Path)
		}
		if !approx(seg.Start, wantStarts[item.ItemID], 0.02) {
			t.Errorf("%s: start %.3f, want %.3f", item.Path, seg.Start, wantStarts[item.ItemID])
		}
		if !approx(seg.Duration(), wantDuration, 0.02) {
			t.Errorf("%s: duration %.3f, want %.3f", item.Path, seg.Duration(), wantDuration)
		}
	}
}

func TestChromaprintAnalyzerCreditsWindowTranslation(t *testing.T) {
	shared := randBlocks(12, 200)
	items := []*queue.Item{
		episodeItem("Show", 1, "e1"),
		episodeItem("Show", 1, "e2"),
	}
	for _, item := range items {
		item.Duration = 1100
		item.CreditsFingerprintStart = 1000
	}
	backend := &fakeBackend{prints: map[string][]uint32{
		"e1": concat(constBlocks(0, 10), shared, constBlocks(0, 10)),
		"e2": concat(constBlocks(0xFFFFFFFF, 20), shared),
	}}
	a := NewChromaprintAnalyzer(backend, testOptions(), logging.NewNop())

	unresolved, found, err := a.Analyze(context.Background(), items, segments.ModeCredits)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(unresolved) != 0 || len(found) != 2 {
		t.Fatalf("got %d unresolved, %d found", len(unresolved), len(found))
	}

	// Window-relative matches are translated back onto the file timeline.
	byItem := segmentByItem(found)
	if got, want := byItem[items[0].ItemID].Start, 1000+10*fftool.BlockDuration; !approx(got, want, 0.02) {
		t.Errorf("e1 start %.3f, want %.3f", got, want)
	}
	if got, want := byItem[items[1].ItemID].Start, 1000+20*fftool.BlockDuration; !approx(got, want, 0.02) {
		t.Errorf("e2 start %.3f, want %.3f", got, want)
	}
}

func TestChromaprintAnalyzerExtractionFailureAbortsUnit(t *testing.T) {
	items := []*queue.Item{
		episodeItem("Show", 1, "e1"),
		episodeItem("Show", 1, "e2"),
	}
	backend := &fakeBackend{
		prints:   map[string][]uint32{"e1": randBlocks(1, 300)},
		printErr: map[string]error{"e2": errors.New("decode failed")},
	}
	a := NewChromaprintAnalyzer(backend, testOptions(), logging.NewNop())

	_, _, err := a.Analyze(context.Background(), items, segments.ModeIntroduction)
	if !errors.Is(err, services.ErrFingerprint) {
		t.Fatalf("got %v, want a fingerprint error", err)
	}
}

func TestChromaprintAnalyzerAnchorFallback(t *testing.T) {
	// The season opener shares nothing with the rest of the season (a
	// cold-open special, say); later episodes still match through each
	// other once one of them matched the anchor.
	runX := randBlocks(21, 150)
	runY := randBlocks(22, 150)
	items := []*queue.Item{
		episodeItem("Show", 1, "e1"),
		episodeItem("Show", 1, "e2"),
		episodeItem("Show", 1, "e3"),
	}
	backend := &fakeBackend{prints: map[string][]uint32{
		"e1": concat(constBlocks(0, 10), runX, constBlocks(0, 10)),
		"e2": concat(runX, runY),
		"e3": concat(constBlocks(0xFFFFFFFF, 10), runY, constBlocks(0xFFFFFFFF, 10)),
	}}
	a := NewChromaprintAnalyzer(backend, testOptions(), logging.NewNop())

	unresolved, found, err := a.Analyze(context.Background(), items, segments.ModeIntroduction)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(unresolved) != 0 || len(found) != 3 {
		t.Fatalf("got %d unresolved, %d found", len(unresolved), len(found))
	}

	// e3 never matches the anchor directly; its range comes from e2.
	byItem := segmentByItem(found)
	if got, want := byItem[items[2].ItemID].Start, 10*fftool.BlockDuration; !approx(got, want, 0.5) {
		t.Errorf("e3 start %.3f, want about %.3f", got, want)
	}
}
