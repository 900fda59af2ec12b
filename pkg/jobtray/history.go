package jobtray

import (
	"sync"

	"github.com/hejijunhao/jobtray/internal/history"
	"github.com/hejijunhao/jobtray/internal/model"
)

// DefaultHistorySize is the capacity used by NewHistory(0).
const DefaultHistorySize = history.DefaultCapacity

// History keeps the most recent events, evicting the oldest once full.
// Safe for concurrent use.
type History struct {
	mu sync.Mutex
	h  *history.History
}

// NewHistory creates a History holding at most capacity events. A
// non-positive capacity uses DefaultHistorySize.
func NewHistory(capacity int) *History {
	return &History{h: history.New(capacity)}
}

// Append records e.
func (h *History) Append(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.h.Append(model.Event{
		Message:   e.Message,
		Title:     e.Title,
		Status:    model.Status(e.Status),
		JobID:     e.JobID,
		Timestamp: e.Timestamp,
	})
}

// Clear removes every event. Clearing an empty history does nothing.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.h.Clear()
}

// Recent returns up to n events, newest first.
func (h *History) Recent(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	in := h.h.Recent(n)
	out := make([]Event, len(in))
	for i, e := range in {
		out[i] = eventFromInternal(e)
	}
	return out
}

// Len returns the number of stored events.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.h.Len()
}
