package segments

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestTimeRangeValidAndDuration(t *testing.T) {
	cases := []struct {
		name     string
		r        TimeRange
		valid    bool
		duration float64
	}{
		{"unset", TimeRange{}, false, 0},
		{"zero end", TimeRange{Start: 5}, false, -5},
		{"normal", TimeRange{Start: 10, End: 95.5}, true, 85.5},
	}
	for _, tc := range cases {
		if got := tc.r.Valid(); got != tc.valid {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.valid)
		}
		if got := tc.r.Duration(); got != tc.duration {
			t.Errorf("%s: Duration() = %v, want %v", tc.name, got, tc.duration)
		}
	}
}

func TestTimeRangeRound(t *testing.T) {
	r := TimeRange{Start: 12.34567, End: 98.76543}.Round()
	if r.Start != 12.35 || r.End != 98.77 {
		t.Fatalf("unexpected rounding: %+v", r)
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"intro":        ModeIntroduction,
		"Introduction": ModeIntroduction,
		"credits":      ModeCredits,
		"OUTRO":        ModeCredits,
	} {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseMode("recap"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestMemoryStoreIgnoresInvalidSegments(t *testing.T) {
	store := NewMemoryStore()
	id := uuid.New()
	err := store.Create(context.Background(), []Segment{
		NewSegment(id, true, TimeRange{Start: 1, End: 0}),
	}, ModeIntroduction)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.GetForItem(context.Background(), id, ModeIntroduction); ok {
		t.Fatal("invalid segment must never be stored")
	}
}

func TestMemoryStoreRoundTripAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()
	seg := NewSegment(id, true, TimeRange{Start: 2, End: 90})
	if err := store.Create(ctx, []Segment{seg}, ModeCredits); err != nil {
		t.Fatal(err)
	}
	r, ok, err := store.GetForItem(ctx, id, ModeCredits)
	if err != nil || !ok {
		t.Fatalf("GetForItem = %v, %v", ok, err)
	}
	if r != seg.TimeRange {
		t.Fatalf("stored range mismatch: %+v", r)
	}
	if _, ok, _ := store.GetForItem(ctx, id, ModeIntroduction); ok {
		t.Fatal("modes must not bleed into each other")
	}
	if err := store.DeleteForItem(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.GetForItem(ctx, id, ModeCredits); ok {
		t.Fatal("segment should be gone after delete")
	}
}
