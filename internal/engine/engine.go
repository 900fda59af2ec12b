package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/jobtray/internal/engine/classifier"
	"github.com/hejijunhao/jobtray/internal/engine/jobid"
	"github.com/hejijunhao/jobtray/internal/model"
)

// PlaceholderMessage stands in for a message frame that carries no body.
const PlaceholderMessage = "(no message)"

// Engine orchestrates the classify -> extract -> build event step.
type Engine struct {
	classifier *classifier.Classifier
	extractor  *jobid.Extractor
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine with the provided components. Nil components use defaults.
func New(cls *classifier.Classifier, ext *jobid.Extractor, opts ...Option) *Engine {
	if cls == nil {
		cls = classifier.New(nil)
	}
	if ext == nil {
		ext = jobid.Default()
	}
	e := &Engine{classifier: cls, extractor: ext, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process turns a deliverable message frame into a classified event.
// The status comes from the body only; the job id from the body, then the title.
func (e *Engine) Process(f model.Frame) model.Event {
	msg := f.Message
	if msg == "" {
		msg = PlaceholderMessage
	}
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	jid, _ := e.extractor.ExtractFirst(msg, f.Title)

	return model.Event{
		ID:        id,
		Topic:     f.Topic,
		Title:     f.Title,
		Message:   msg,
		Status:    e.classifier.Classify(msg),
		JobID:     jid,
		Timestamp: e.now(),
	}
}

// ProcessText classifies a bare message body with no title.
func (e *Engine) ProcessText(text string) model.Event {
	return e.Process(model.Frame{Event: model.FrameMessage, Message: text})
}
