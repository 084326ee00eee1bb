package memory

import (
	"context"
	"sync"

	"listkeeper/internal/domain/listparams"
)

// History records the locations one client went through, newest last.
// It is both the location source and the navigator of a list.
type History struct {
	mu      sync.RWMutex
	entries []listparams.Location
}

// NewHistory starts a history at loc.
func NewHistory(loc listparams.Location) *History {
	return &History{entries: []listparams.Location{loc}}
}

// Location returns the current entry.
func (h *History) Location() listparams.Location {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[len(h.entries)-1]
}

// Push appends loc and makes it current.
func (h *History) Push(_ context.Context, loc listparams.Location) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, loc)
	return nil
}

// Visit moves to loc unless it already is the current entry.
func (h *History) Visit(loc listparams.Location) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries[len(h.entries)-1] == loc {
		return false
	}
	h.entries = append(h.entries, loc)
	return true
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []listparams.Location {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]listparams.Location, len(h.entries))
	copy(out, h.entries)
	return out
}
