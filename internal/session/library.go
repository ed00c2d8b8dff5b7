// Package session holds the state behind the desktop window: the ordered
// library of loaded images, their palettes and the controller that reacts to
// view events.
package session

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/jmylchreest/colorhunter/internal/colour"
)

var (
	// ErrDuplicate is returned when an image ID is already in the library.
	ErrDuplicate = errors.New("image already in library")

	// ErrNotFound is returned for unknown IDs and out-of-range indices.
	ErrNotFound = errors.New("image not found")

	// ErrClosed is returned by a Controller after Close.
	ErrClosed = errors.New("session closed")
)

// Entry pairs a loaded image with its extracted palette.
// Entries are never modified after they are added.
type Entry struct {
	// ID is the source path or URL.
	ID string

	Image     image.Image
	Thumbnail image.Image
	Palette   *colour.Palette
}

// Library is an ordered, concurrency-safe collection of entries keyed by ID.
type Library struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{entries: make(map[string]Entry)}
}

// Add appends e to the library.
func (l *Library) Add(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("entry ID cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[e.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	l.entries[e.ID] = e
	l.order = append(l.order, e.ID)
	return nil
}

// Contains reports whether id is in the library.
func (l *Library) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[id]
	return ok
}

// At returns the entry at index. Indices past the end resolve to the last
// entry; the resolved index is returned alongside it.
func (l *Library) At(index int) (Entry, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || len(l.order) == 0 {
		return Entry{}, -1, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	index = min(index, len(l.order)-1)
	return l.entries[l.order[index]], index, nil
}

// DeleteAt removes the entry at index and returns it.
func (l *Library) DeleteAt(index int) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.order) {
		return Entry{}, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	id := l.order[index]
	e := l.entries[id]
	delete(l.entries, id)
	l.order = slices.Delete(l.order, index, index+1)
	return e, nil
}

// IndexOf returns the position of id, or -1.
func (l *Library) IndexOf(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Index(l.order, id)
}

// IDs returns the entry IDs in insertion order.
func (l *Library) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.order)
}

// Len returns the number of entries.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
