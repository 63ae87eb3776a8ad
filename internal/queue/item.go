package queue

import (
	"github.com/google/uuid"
)

// Item is one media file queued for analysis. Items are created fresh for
// every run and discarded afterwards; identity is the item id alone.
type Item struct {
	ItemID       uuid.UUID
	Name         string
	SeriesName   string
	SeasonNumber int
	Path         string

	// Duration is the total file length in seconds.
	Duration float64
	// IntroFingerprintEnd is where intro analysis stops sampling.
	IntroFingerprintEnd float64
	// CreditsFingerprintStart is where credits analysis begins sampling.
	CreditsFingerprintStart float64

	IsEpisode bool
	// IsAnalyzed is set during queue verification when a persisted segment
	// or blacklist entry already covers this item for the current mode.
	IsAnalyzed bool
	// SkipBlacklist protects items that could not be analyzed for a
	// structural reason (a lone episode has no sibling to correlate
	// against) from being blacklisted; a later run may succeed.
	SkipBlacklist bool
}

// DisplayName names the item the way logs and tables should show it.
func (i *Item) DisplayName() string {
	if i.IsEpisode {
		return i.SeriesName
	}
	return i.Name
}
