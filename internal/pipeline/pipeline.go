package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/engine"
	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/model"
)

// State is the consumer's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Handler receives the consumer's output. All methods are called from the
// goroutine running Consumer.Run; implementations that own
// single-threaded state must hand the call off to their own goroutine.
type Handler interface {
	// OnEvent is called once per deliverable message frame.
	OnEvent(model.Event)
	// OnConnected is called for each "open" frame.
	OnConnected()
	// OnDisconnected is called after every failed connect or dropped stream,
	// before the backoff sleep.
	OnDisconnected(err error)
}

// Consumer subscribes to one topic and turns its stream into classified
// events. It reconnects forever with a fixed delay per failure kind until
// ctx is cancelled or the continue predicate reports false.
type Consumer struct {
	connector connector.Connector
	engine    *engine.Engine
	handler   Handler
	cfg       connector.ConnectorConfig

	connBackoff    time.Duration
	otherBackoff   time.Duration
	sleep          func(context.Context, time.Duration) error
	shouldContinue func() bool

	state atomic.Int32
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithBackoff overrides the reconnect delays for connection failures and
// for all other failures.
func WithBackoff(connection, other time.Duration) Option {
	return func(c *Consumer) {
		c.connBackoff = connection
		c.otherBackoff = other
	}
}

// WithSleep replaces the backoff wait. The function must return early with
// a non-nil error when ctx is done.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Consumer) { c.sleep = sleep }
}

// WithShouldContinue installs a predicate polled before each connect and
// between lines. Returning false stops Run without another backoff.
func WithShouldContinue(fn func() bool) Option {
	return func(c *Consumer) { c.shouldContinue = fn }
}

// New creates a Consumer. A nil engine uses the default classifier and extractor.
func New(conn connector.Connector, eng *engine.Engine, h Handler, cfg connector.ConnectorConfig, opts ...Option) *Consumer {
	if eng == nil {
		eng = engine.New(nil, nil)
	}
	c := &Consumer{
		connector:      conn,
		engine:         eng,
		handler:        h,
		cfg:            cfg,
		connBackoff:    DefaultConnectionBackoff,
		otherBackoff:   DefaultOtherBackoff,
		sleep:          sleepContext,
		shouldContinue: func() bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state. Safe for concurrent use.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
}

// Backoff returns the reconnect delay for a failure kind.
func (c *Consumer) Backoff(kind FailureKind) time.Duration {
	if kind == FailureConnection {
		return c.connBackoff
	}
	return c.otherBackoff
}

func (c *Consumer) running(ctx context.Context) bool {
	return ctx.Err() == nil && c.shouldContinue()
}

// Run blocks until shutdown. It returns ctx.Err() when cancelled and nil
// when the continue predicate stopped it. Transport failures never end it.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.setState(StateStopped)

	for c.running(ctx) {
		err := c.session(ctx)
		metrics.SetConnected(false)
		if !c.running(ctx) {
			break
		}
		c.setState(StateDisconnected)

		kind := Classify(err)
		delay := c.Backoff(kind)
		metrics.ObserveReconnect(kind.String())
		if kind == FailureConnection {
			slog.Warn("connection lost, reconnecting", "topic", c.cfg.Topic, "error", err, "backoff", delay)
		} else {
			slog.Error("stream error, reconnecting", "topic", c.cfg.Topic, "error", err, "backoff", delay)
		}
		c.handler.OnDisconnected(err)

		if err := c.sleep(ctx, delay); err != nil {
			break
		}
	}
	return ctx.Err()
}

// session runs one connect-and-read cycle. It returns nil only when the
// consumer has been asked to stop.
func (c *Consumer) session(ctx context.Context) error {
	c.setState(StateConnecting)
	slog.Debug("connecting", "server", c.cfg.Server, "topic", c.cfg.Topic, "transport", c.cfg.Provider)

	sess, err := c.connector.Connect(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	c.setState(StateConnected)
	metrics.SetConnected(true)

	for c.running(ctx) {
		line, err := sess.Next()
		if err != nil {
			return err
		}
		c.handleLine(line)
	}
	return nil
}

var errNotObject = errors.New("frame is not a JSON object")

// handleLine decodes one frame and dispatches it. Blank and malformed lines
// are dropped.
func (c *Consumer) handleLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	f, err := decodeFrame(line)
	if err != nil {
		metrics.ObserveMalformed()
		slog.Debug("dropping malformed frame", "error", err, "bytes", len(line))
		return
	}
	metrics.ObserveFrame(f.Event)

	switch f.Event {
	case model.FrameOpen:
		slog.Info("connected", "server", c.cfg.Server, "topic", c.cfg.Topic)
		c.handler.OnConnected()
	case model.FrameKeepalive:
	default:
		event := c.engine.Process(f)
		metrics.ObserveEvent(string(event.Status))
		slog.Debug("event", "status", event.Status, "job_id", event.JobID)
		c.handler.OnEvent(event)
	}
}

func decodeFrame(line []byte) (model.Frame, error) {
	var f model.Frame
	if line[0] != '{' {
		return f, errNotObject
	}
	if err := json.Unmarshal(line, &f); err != nil {
		return f, err
	}
	return f, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
