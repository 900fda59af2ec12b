package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

const (
	defaultBufSize = 4 * 1024
	defaultKeep    = 3
)

// Format selects the line encoding of the event log.
type Format int

const (
	// JSON writes one JSON object per line.
	JSON Format = iota
	// Text writes the same label shown in the history list.
	Text
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithKeep sets how many rotated files ({path}.1 ... {path}.N) are kept. Default: 3.
func WithKeep(n int) Option {
	return func(o *Output) { o.keep = n }
}

// WithFormat selects JSON (default) or Text lines.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// Output appends job events to a local file. Each write is flushed so the
// log survives an abrupt exit.
type Output struct {
	w       *bufio.Writer
	f       *os.File
	mu      sync.Mutex
	path    string
	format  Format
	maxSize int64 // 0 = no rotation
	keep    int
	written int64
}

// New opens (or creates) path for appending.
func New(path string, opts ...Option) (*Output, error) {
	o := &Output{
		path: path,
		keep: defaultKeep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.keep < 1 {
		o.keep = 1
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Output) encode(event model.Event) ([]byte, error) {
	if o.format == Text {
		return []byte(output.Label(event) + "\n"), nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write appends one line for the event, rotating first if it would push
// the file past the size limit.
func (o *Output) Write(_ context.Context, event model.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := o.encode(event)
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}

	if o.maxSize > 0 && o.written > 0 && o.written+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	if err := o.w.Flush(); err != nil {
		return fmt.Errorf("file output: flush: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, defaultBufSize)
	o.written = info.Size()
	return nil
}

// rotate closes the current file, shifts {path}.N-1 -> {path}.N down to
// {path} -> {path}.1, drops anything past keep, and reopens {path}.
func (o *Output) rotate() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	os.Remove(fmt.Sprintf("%s.%d", o.path, o.keep))
	for i := o.keep - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", o.path, i), fmt.Sprintf("%s.%d", o.path, i+1)) // may not exist
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}
	return o.openFile()
}
