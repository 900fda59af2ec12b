package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

const (
	defaultBatchSize     = 1
	defaultFlushInterval = 5 * time.Second
	defaultTimeout       = 10 * time.Second
	defaultRetryBase     = time.Second
	maxRetries           = 3
)

// Record is one element of the POSTed JSON array: the event plus the
// rendered notification title and history label.
type Record struct {
	model.Event
	NotificationTitle string `json:"notification_title"`
	Label             string `json:"label"`
}

// NewRecord renders an event for delivery.
func NewRecord(e model.Event) Record {
	return Record{Event: e, NotificationTitle: output.Title(e), Label: output.Label(e)}
}

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets extra HTTP headers, e.g. Authorization.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithStatuses forwards only events with one of the given statuses.
// Default: all.
func WithStatuses(statuses ...model.Status) Option {
	return func(o *Output) { o.statuses = statuses }
}

// WithBatchSize groups n events per POST. Default: 1.
func WithBatchSize(n int) Option {
	return func(o *Output) { o.batchSize = n }
}

// WithFlushInterval bounds how long a partial batch waits. Default: 5s.
func WithFlushInterval(d time.Duration) Option {
	return func(o *Output) { o.flushInterval = d }
}

// WithTimeout bounds each POST attempt. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// WithRetryBase sets the first retry delay; later retries double it. Default: 1s.
func WithRetryBase(d time.Duration) Option {
	return func(o *Output) { o.retryBase = d }
}

// WithOnError handles failures of interval flushes, which have no caller
// to return to. Default: slog.Warn.
func WithOnError(f func(error)) Option {
	return func(o *Output) { o.onError = f }
}

// Output POSTs job events to an HTTP endpoint as a JSON array of Records.
// Failed POSTs are retried with exponential backoff when the response is
// retryable (5xx, 429) or the request never got a response.
type Output struct {
	client        *http.Client
	url           string
	headers       map[string]string
	statuses      []model.Status
	batchSize     int
	flushInterval time.Duration
	retryBase     time.Duration
	onError       func(error)

	mu    sync.Mutex
	queue []Record
	timer *time.Timer
}

// New creates a webhook output posting to url.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client:        &http.Client{Timeout: defaultTimeout},
		url:           url,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		retryBase:     defaultRetryBase,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.batchSize < 1 {
		o.batchSize = 1
	}
	if o.onError == nil {
		o.onError = func(err error) {
			slog.Warn("webhook flush failed", "output", "webhook", "error", err)
		}
	}
	return o
}

// Write queues event and posts the batch once it is full. The first event
// of a partial batch arms the flush timer.
func (o *Output) Write(ctx context.Context, event model.Event) error {
	if len(o.statuses) > 0 && !slices.Contains(o.statuses, event.Status) {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.queue = append(o.queue, NewRecord(event))
	if len(o.queue) >= o.batchSize {
		return o.flushLocked(ctx)
	}
	if o.timer == nil {
		o.timer = time.AfterFunc(o.flushInterval, o.flushOnTimer)
	}
	return nil
}

func (o *Output) flushOnTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timer = nil
	if err := o.flushLocked(context.Background()); err != nil {
		o.onError(err)
	}
}

// Close posts whatever is still queued.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flushLocked(context.Background())
}

// flushLocked posts the queue. Caller holds o.mu.
func (o *Output) flushLocked(ctx context.Context) error {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if len(o.queue) == 0 {
		return nil
	}
	batch := o.queue
	o.queue = nil

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	if err := o.post(ctx, body); err != nil {
		return fmt.Errorf("webhook: %d events: %w", len(batch), err)
	}
	return nil
}

func (o *Output) post(ctx context.Context, body []byte) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if werr := wait(ctx, o.retryBase<<(attempt-1)); werr != nil {
				return errors.Join(err, werr)
			}
		}
		err = o.send(ctx, body)
		if err == nil {
			return nil
		}
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return err
		}
	}
	return err
}

func (o *Output) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "jobtray")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	if err := httpclient.CheckResponse(resp); err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
