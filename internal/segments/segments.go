package segments

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Mode selects which kind of recurring segment a run looks for. It decides
// both the sampled window of each file and the output channel results land
// in.
type Mode string

const (
	// ModeIntroduction analyzes the head of each file for episode intros.
	ModeIntroduction Mode = "introduction"
	// ModeCredits analyzes the tail of each file for end credits.
	ModeCredits Mode = "credits"
)

// Modes lists every analysis mode in execution order.
func Modes() []Mode {
	return []Mode{ModeIntroduction, ModeCredits}
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "introduction", "intro":
		return ModeIntroduction, nil
	case "credits", "outro":
		return ModeCredits, nil
	default:
		return "", fmt.Errorf("unknown analysis mode %q (want introduction or credits)", s)
	}
}

func (m Mode) String() string { return string(m) }

// TimeRange is a (start, end) pair in seconds relative to the beginning of a
// media file. A zero End means "no segment found"; such ranges must never be
// surfaced to consumers.
type TimeRange struct {
	Start float64
	End   float64
}

// Valid reports whether the range denotes a real segment.
func (r TimeRange) Valid() bool { return r.End > 0 }

// Duration returns the segment length in seconds.
func (r TimeRange) Duration() float64 { return r.End - r.Start }

// Round trims both bounds to two decimal places. Sub-hundredth precision
// carries no playback value and only adds float-equality noise downstream.
func (r TimeRange) Round() TimeRange {
	return TimeRange{
		Start: math.Round(r.Start*100) / 100,
		End:   math.Round(r.End*100) / 100,
	}
}

// Shift translates the range by offset seconds.
func (r TimeRange) Shift(offset float64) TimeRange {
	return TimeRange{Start: r.Start + offset, End: r.End + offset}
}

// Segment is a validated detection result for one media item.
type Segment struct {
	ItemID    uuid.UUID
	IsEpisode bool
	TimeRange
}

// NewSegment builds a Segment from a detected range.
func NewSegment(itemID uuid.UUID, isEpisode bool, r TimeRange) Segment {
	return Segment{ItemID: itemID, IsEpisode: isEpisode, TimeRange: r}
}
