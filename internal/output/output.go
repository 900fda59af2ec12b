package output

import (
	"context"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Output defines the interface for job event destinations.
type Output interface {
	Write(ctx context.Context, event model.Event) error
	Close() error
}
