package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"skipdetect/internal/blacklist"
	"skipdetect/internal/logging"
	"skipdetect/internal/segments"
)

type recordingRunner struct {
	mu    sync.Mutex
	modes []segments.Mode
	gate  chan struct{}
}

func (r *recordingRunner) Run(_ context.Context, mode segments.Mode, _ func(float64)) (Summary, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	r.modes = append(r.modes, mode)
	r.mu.Unlock()
	return Summary{Mode: mode}, nil
}

func (r *recordingRunner) recorded() []segments.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]segments.Mode(nil), r.modes...)
}

func TestAnalyzeAllRunsModesInOrder(t *testing.T) {
	rec := &recordingRunner{}
	runner := NewRunner(rec, segments.NewMemoryStore(), nil, time.Millisecond, logging.NewNop())

	runner.AnalyzeAll(context.Background())

	modes := rec.recorded()
	if len(modes) != 2 || modes[0] != segments.ModeIntroduction || modes[1] != segments.ModeCredits {
		t.Fatalf("got modes %v, want introductions before credits", modes)
	}
}

func TestTriggersDuringRunCoalesce(t *testing.T) {
	rec := &recordingRunner{gate: make(chan struct{})}
	runner := NewRunner(rec, segments.NewMemoryStore(), nil, time.Millisecond, logging.NewNop())

	runner.TriggerNow(context.Background())
	// The first pass is blocked on the gate; every extra trigger must
	// collapse into a single follow-up pass.
	runner.TriggerNow(context.Background())
	runner.TriggerNow(context.Background())
	runner.TriggerNow(context.Background())
	close(rec.gate)
	runner.Wait()

	// Two passes, two modes each.
	if got := len(rec.recorded()); got != 4 {
		t.Fatalf("got %d mode runs, want 4 (one in-flight pass plus one follow-up)", got)
	}
}

func TestScheduleDebounces(t *testing.T) {
	rec := &recordingRunner{}
	runner := NewRunner(rec, segments.NewMemoryStore(), nil, 20*time.Millisecond, logging.NewNop())

	for i := 0; i < 5; i++ {
		runner.Schedule(context.Background())
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(rec.recorded()) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	runner.Wait()
	if got := len(rec.recorded()); got != 2 {
		t.Fatalf("got %d mode runs, want a single debounced pass of 2 modes", got)
	}
}

func TestOnItemRemovedForgetsItem(t *testing.T) {
	store := segments.NewMemoryStore()
	bl := newMemoryBlacklist()
	itemID := uuid.New()

	ctx := context.Background()
	if err := store.Create(ctx, []segments.Segment{
		segments.NewSegment(itemID, true, segments.TimeRange{Start: 1, End: 60}),
	}, segments.ModeIntroduction); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := bl.Record(ctx, []blacklist.Entry{
		{ItemID: itemID, Mode: segments.ModeCredits, Name: "Show"},
	}); err != nil {
		t.Fatalf("seed blacklist: %v", err)
	}

	runner := NewRunner(&recordingRunner{}, store, bl, time.Millisecond, logging.NewNop())
	runner.OnItemRemoved(ctx, itemID)

	if _, ok, _ := store.GetForItem(ctx, itemID, segments.ModeIntroduction); ok {
		t.Fatal("segments for the removed item must be deleted")
	}
	if ok, _ := bl.Contains(ctx, itemID, segments.ModeCredits); ok {
		t.Fatal("blacklist entries for the removed item must be deleted")
	}
}
