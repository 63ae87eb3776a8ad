package library

import (
	"context"

	"github.com/google/uuid"
)

// Kind distinguishes the media types the analyzer understands.
type Kind string

const (
	KindEpisode Kind = "Episode"
	KindMovie   Kind = "Movie"
)

// Library is one top-level media library exposed by the host server.
type Library struct {
	ID   string
	Name string
}

// Item is the subset of host item metadata the queue builder consumes.
type Item struct {
	ID              uuid.UUID
	Name            string
	Path            string
	Kind            Kind
	SeriesName      string
	SeasonID        uuid.UUID
	SeasonNumber    int
	EpisodeNumber   int
	IsVirtual       bool
	DurationSeconds float64
}

// Index is the host library boundary: it enumerates libraries and the media
// items they contain. The analysis core never mutates the host catalog.
type Index interface {
	// Libraries lists every library the server exposes.
	Libraries(ctx context.Context) ([]Library, error)
	// Items queries a library recursively for the requested kinds. Virtual
	// items (known to the server but not present on disk) are excluded.
	Items(ctx context.Context, libraryID string, kinds []Kind) ([]Item, error)
	// ItemPath resolves the current file path of an item, used to re-verify
	// queue entries that may have been deleted since enqueue.
	ItemPath(ctx context.Context, itemID uuid.UUID) (string, error)
}
