package history

import "github.com/hejijunhao/jobtray/internal/model"

// DefaultCapacity is the number of events kept for display.
const DefaultCapacity = 25

// History is a bounded, insertion-ordered log of events. When full, the
// oldest entries are evicted first.
//
// History is not safe for concurrent use. It is owned by the presentation
// loop and mutated only there.
type History struct {
	capacity int
	events   []model.Event
}

// New creates an empty History holding at most capacity events.
// A non-positive capacity uses DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity, events: make([]model.Event, 0, capacity)}
}

// Append adds an event at the end, evicting from the front past capacity.
func (h *History) Append(e model.Event) {
	h.events = append(h.events, e)
	if over := len(h.events) - h.capacity; over > 0 {
		// Shift down in place so the backing array does not grow without bound.
		n := copy(h.events, h.events[over:])
		clear(h.events[n:])
		h.events = h.events[:n]
	}
}

// Clear removes every event. Clearing an empty history is a no-op.
func (h *History) Clear() {
	clear(h.events)
	h.events = h.events[:0]
}

// Recent returns up to n events, newest first. The result is a copy.
func (h *History) Recent(n int) []model.Event {
	if n <= 0 || len(h.events) == 0 {
		return nil
	}
	if n > len(h.events) {
		n = len(h.events)
	}
	out := make([]model.Event, 0, n)
	for i := len(h.events) - 1; i >= len(h.events)-n; i-- {
		out = append(out, h.events[i])
	}
	return out
}

// All returns every event in arrival order. The result is a copy.
func (h *History) All() []model.Event {
	out := make([]model.Event, len(h.events))
	copy(out, h.events)
	return out
}

// Latest returns the most recent event, if any.
func (h *History) Latest() (model.Event, bool) {
	if len(h.events) == 0 {
		return model.Event{}, false
	}
	return h.events[len(h.events)-1], true
}

// Len returns the number of stored events.
func (h *History) Len() int {
	return len(h.events)
}

// Cap returns the maximum number of stored events.
func (h *History) Cap() int {
	return h.capacity
}
