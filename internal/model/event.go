package model

import "time"

// Status is the classified lifecycle state of a job message.
type Status string

const (
	Started  Status = "started"
	Finished Status = "finished"
	Failed   Status = "failed"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case Started, Finished, Failed:
		return true
	}
	return false
}

// Event is one classified notification. It is jobtray's output type.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	JobID     string    `json:"job_id,omitempty"` // digits only; empty when nothing matched
	Timestamp time.Time `json:"timestamp"`
}

// HasJobID reports whether an identifier was extracted for the event.
func (e Event) HasJobID() bool {
	return e.JobID != ""
}
