package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithName labels log records and error metrics. Default: "async".
func WithName(name string) Option {
	return func(a *Async) { a.name = name }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning and counts the failure.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the event) when the
// buffer is full, instead of blocking.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for queued events. Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async decouples the caller from a slow output via a buffered channel.
// A background goroutine drains it to the wrapped output; its errors go to
// errFunc instead of the caller.
type Async struct {
	inner        output.Output
	name         string
	ch           chan model.Event
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New wraps an output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		name:         "async",
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errFunc == nil {
		a.errFunc = func(err error) {
			metrics.ObserveOutputError(a.name)
			slog.Warn("output write failed", "output", a.name, "error", err)
		}
	}
	a.ch = make(chan model.Event, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues the event. By default it blocks while the buffer is full;
// with WithDropOnFull the event is dropped instead.
func (a *Async) Write(_ context.Context, event model.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	if a.dropOnFull {
		select {
		case a.ch <- event:
		default:
			slog.Warn("output buffer full, dropping event",
				"output", a.name, "status", event.Status, "job_id", event.JobID)
		}
		return nil
	}
	a.ch <- event
	return nil
}

// Close stops accepting events, waits for the queue to drain (bounded by
// the drain timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("output drain timed out", "output", a.name)
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for event := range a.ch {
		if err := a.inner.Write(context.Background(), event); err != nil {
			a.errFunc(err)
		}
	}
}
