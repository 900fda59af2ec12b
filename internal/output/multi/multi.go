package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

// Target is one named destination of a Multi.
type Target struct {
	Name   string
	Output output.Output
}

// Multi fans out events to several outputs, sequentially, in order.
// A failing target does not stop delivery to the ones after it.
type Multi struct {
	targets []Target
}

// New creates a Multi that fans out to the given targets.
func New(targets ...Target) *Multi {
	return &Multi{targets: targets}
}

// Len returns the number of targets.
func (m *Multi) Len() int {
	return len(m.targets)
}

// Write delivers the event to every target. Failures are counted per target
// name and returned joined.
func (m *Multi) Write(ctx context.Context, event model.Event) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Output.Write(ctx, event); err != nil {
			metrics.ObserveOutputError(t.Name)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every target, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
