package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Output writes JSON-encoded job events to stdout, one per line.
type Output struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// New creates a stdout Output. A nil writer means os.Stdout; pretty
// switches to indented JSON.
func New(w io.Writer, pretty bool) *Output {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) Write(_ context.Context, event model.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(event); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
