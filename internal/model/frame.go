package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Control values of the Frame.Event field. Any other value is a deliverable message.
const (
	FrameOpen      = "open"
	FrameKeepalive = "keepalive"
	FrameMessage   = "message"
)

// Frame is one decoded line of the subscription stream. Unknown fields are
// ignored, and id, time and topic are read leniently: a value of an
// unexpected type leaves the field empty instead of rejecting the frame.
type Frame struct {
	ID      string `json:"id,omitempty"`
	Time    int64  `json:"time,omitempty"` // unix seconds, set by the server
	Event   string `json:"event"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
	Title   string `json:"title,omitempty"`
}

// IsControl reports whether the frame is a connection control signal rather than a message.
func (f Frame) IsControl() bool {
	return f.Event == FrameOpen || f.Event == FrameKeepalive
}

// wireFrame decodes event, message and title strictly and keeps the rest raw.
type wireFrame struct {
	ID      json.RawMessage `json:"id"`
	Time    json.RawMessage `json:"time"`
	Event   string          `json:"event"`
	Topic   json.RawMessage `json:"topic"`
	Message string          `json:"message"`
	Title   string          `json:"title"`
}

func (f *Frame) UnmarshalJSON(data []byte) error {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Frame{
		ID:      looseString(w.ID),
		Time:    looseUnix(w.Time),
		Event:   w.Event,
		Topic:   looseString(w.Topic),
		Message: w.Message,
		Title:   w.Title,
	}
	return nil
}

// looseString accepts a JSON string or number; anything else yields "".
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// looseUnix accepts an integer or a numeric string; anything else yields 0.
func looseUnix(raw json.RawMessage) int64 {
	s := looseString(raw)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
