package jobtray

import (
	"fmt"
	"sync"
	"time"

	"github.com/hejijunhao/jobtray/internal/engine"
	"github.com/hejijunhao/jobtray/internal/engine/classifier"
	"github.com/hejijunhao/jobtray/internal/engine/jobid"
	"github.com/hejijunhao/jobtray/internal/engine/taxonomy"
	"github.com/hejijunhao/jobtray/internal/model"
)

// Jobtray classifies notification text. Safe for concurrent use.
type Jobtray struct {
	engine     *engine.Engine
	classifier *classifier.Classifier
	extractor  *jobid.Extractor
	taxonomy   *taxonomy.Taxonomy
}

// New creates a Jobtray. Without options it uses the built-in rules and
// identifier patterns.
func New(opts ...Option) (*Jobtray, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	tax := taxonomy.Default()
	if o.rules != nil {
		t, err := taxonomy.New(rulesToInternal(o.rules))
		if err != nil {
			return nil, fmt.Errorf("jobtray: %w", err)
		}
		tax = t
	}

	ext := jobid.Default()
	if o.patterns != nil {
		e, err := jobid.New(o.patterns)
		if err != nil {
			return nil, fmt.Errorf("jobtray: %w", err)
		}
		ext = e
	}

	cls := classifier.New(tax)
	return &Jobtray{
		engine:     engine.New(cls, ext, engine.WithClock(o.now)),
		classifier: cls,
		extractor:  ext,
		taxonomy:   tax,
	}, nil
}

// Classify returns the lifecycle status of text. It never fails: text that
// matches no keyword is Started.
func (j *Jobtray) Classify(text string) Status {
	return Status(j.classifier.Classify(text))
}

// ExtractJobID returns the first job identifier found in text.
func (j *Jobtray) ExtractJobID(text string) (string, bool) {
	return j.extractor.Extract(text)
}

// NewEvent classifies message and looks for a job identifier in message,
// then in title.
func (j *Jobtray) NewEvent(message, title string) Event {
	e := j.engine.Process(model.Frame{Event: model.FrameMessage, Message: message, Title: title})
	return eventFromInternal(e)
}

var defaultInstance = sync.OnceValue(func() *Jobtray {
	j, err := New()
	if err != nil {
		panic(err)
	}
	return j
})

// Classify uses the built-in rules.
func Classify(text string) Status {
	return defaultInstance().Classify(text)
}

// ExtractJobID uses the built-in identifier patterns.
func ExtractJobID(text string) (string, bool) {
	return defaultInstance().ExtractJobID(text)
}

// NewEvent uses the built-in rules and patterns.
func NewEvent(message, title string) Event {
	return defaultInstance().NewEvent(message, title)
}

func eventFromInternal(e model.Event) Event {
	return Event{
		Message:   e.Message,
		Title:     e.Title,
		Status:    Status(e.Status),
		JobID:     e.JobID,
		Timestamp: e.Timestamp,
	}
}
