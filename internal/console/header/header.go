// Package header models the badge strip shown above the console transcript.
package header

import (
	"sort"
	"sync"
)

// Entry is one header badge. Label and Color are evaluated on every render.
type Entry struct {
	Label    func() string
	Color    func() string
	Priority int
	Width    int
}

// NewEntry builds an Entry; a negative width is clamped to zero.
func NewEntry(label, color func() string, priority, width int) *Entry {
	if width < 0 {
		width = 0
	}
	return &Entry{Label: label, Color: color, Priority: priority, Width: width}
}

// Header keeps entries ordered by descending priority.
type Header struct {
	mu       sync.Mutex
	entries  []*Entry
	onChange func()
}

// New creates an empty Header. onChange, if non-nil, runs after every
// mutation.
func New(onChange func()) *Header {
	return &Header{onChange: onChange}
}

// Add inserts e unless it is already present.
func (h *Header) Add(e *Entry) {
	h.mu.Lock()
	for _, existing := range h.entries {
		if existing == e {
			h.mu.Unlock()
			return
		}
	}
	h.entries = append(h.entries, e)
	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].Priority > h.entries[j].Priority
	})
	h.mu.Unlock()
	h.changed()
}

// Remove deletes e if present.
func (h *Header) Remove(e *Entry) {
	h.mu.Lock()
	removed := false
	for i, existing := range h.entries {
		if existing == e {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			removed = true
			break
		}
	}
	h.mu.Unlock()
	if removed {
		h.changed()
	}
}

// Manage adds e when add is true and removes it otherwise.
func (h *Header) Manage(e *Entry, add bool) {
	if add {
		h.Add(e)
		return
	}
	h.Remove(e)
}

// Entries returns the entries in display order.
func (h *Header) Entries() []*Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// ShowTitle reports whether the title should be shown in place of badges.
func (h *Header) ShowTitle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries) == 0
}

func (h *Header) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}
