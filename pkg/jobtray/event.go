package jobtray

import "time"

// Status is the lifecycle state of a job message.
type Status string

const (
	Started  Status = "started"
	Finished Status = "finished"
	Failed   Status = "failed"
)

// Event is a classified notification.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Event struct {
	Message   string    `json:"message"`          // Body text, or a placeholder when empty
	Title     string    `json:"title,omitempty"`  // Optional heading
	Status    Status    `json:"status"`           // Always one of Started, Finished, Failed
	JobID     string    `json:"job_id,omitempty"` // Digits only; empty when nothing matched
	Timestamp time.Time `json:"timestamp"`        // When the event was built
}

// HasJobID reports whether an identifier was found.
func (e Event) HasJobID() bool {
	return e.JobID != ""
}
