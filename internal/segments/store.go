package segments

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store is the host-side persistence boundary for detected segments. The
// analysis core only produces segments; durable storage and the wire format
// belong to the host.
type Store interface {
	// Create persists a batch of validated segments for the given mode.
	Create(ctx context.Context, segs []Segment, mode Mode) error
	// GetForItem returns the stored range for an item and mode, if any.
	GetForItem(ctx context.Context, itemID uuid.UUID, mode Mode) (TimeRange, bool, error)
	// DeleteForItem removes all stored segments for an item.
	DeleteForItem(ctx context.Context, itemID uuid.UUID) error
}

type memoryKey struct {
	item uuid.UUID
	mode Mode
}

// MemoryStore is an in-process Store used by tests and one-shot CLI runs
// where results are reported instead of persisted.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memoryKey]Segment
}

// NewMemoryStore returns an empty in-memory segment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]Segment)}
}

func (s *MemoryStore) Create(_ context.Context, segs []Segment, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range segs {
		if !seg.Valid() {
			continue
		}
		s.entries[memoryKey{item: seg.ItemID, mode: mode}] = seg
	}
	return nil
}

func (s *MemoryStore) GetForItem(_ context.Context, itemID uuid.UUID, mode Mode) (TimeRange, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, ok := s.entries[memoryKey{item: itemID, mode: mode}]
	if !ok {
		return TimeRange{}, false, nil
	}
	return seg.TimeRange, true, nil
}

func (s *MemoryStore) DeleteForItem(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.item == itemID {
			delete(s.entries, key)
		}
	}
	return nil
}

// All returns every stored segment grouped by mode. Used for run summaries.
func (s *MemoryStore) All() map[Mode][]Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Mode][]Segment)
	for key, seg := range s.entries {
		out[key.mode] = append(out[key.mode], seg)
	}
	return out
}
