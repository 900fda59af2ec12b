// Package tray is the platform-neutral presentation core. Core holds the
// event history, the icon state and the connection flag and is not safe for
// concurrent use; Tray runs a Core on its own goroutine behind an inbox, and
// the terminal UI drives one from its update loop.
package tray

import (
	"context"
	"log/slog"

	"github.com/hejijunhao/jobtray/internal/history"
	"github.com/hejijunhao/jobtray/internal/metrics"
	"github.com/hejijunhao/jobtray/internal/model"
	"github.com/hejijunhao/jobtray/internal/output"
)

// EmptyLabel is the single menu line shown before any event arrives.
const EmptyLabel = "No events yet — waiting for jobs..."

const defaultInboxSize = 64

// State is an immutable snapshot of what the tray shows.
type State struct {
	Topic     string
	Icon      model.Status // empty = idle
	Connected bool
	LastError string
	Recent    []model.Event // newest first
}

// Idle reports whether the icon is in its neutral state.
func (s State) Idle() bool {
	return s.Icon == ""
}

// Tooltip is the hover text for the icon.
func (s State) Tooltip() string {
	return output.Tooltip(s.Icon)
}

// Labels renders the history menu, newest first.
func (s State) Labels() []string {
	if len(s.Recent) == 0 {
		return []string{EmptyLabel}
	}
	labels := make([]string, len(s.Recent))
	for i, e := range s.Recent {
		labels[i] = output.Label(e)
	}
	return labels
}

// Core applies consumer callbacks and user actions to the presentation state.
type Core struct {
	topic   string
	history *history.History
	out     output.Output

	icon      model.Status
	connected bool
	lastErr   error
}

// NewCore creates a Core. A nil history gets the default capacity; a nil
// output disables delivery.
func NewCore(topic string, h *history.History, out output.Output) *Core {
	if h == nil {
		h = history.New(history.DefaultCapacity)
	}
	return &Core{topic: topic, history: h, out: out}
}

// Event records e, switches the icon to its status and forwards it to the
// output. Output failures are logged and do not undo the update.
func (c *Core) Event(ctx context.Context, e model.Event) {
	c.history.Append(e)
	c.icon = e.Status
	metrics.SetHistorySize(c.history.Len())
	if c.out == nil {
		return
	}
	if err := c.out.Write(ctx, e); err != nil {
		slog.Warn("presentation failed", "output", "tray", "status", e.Status, "job_id", e.JobID, "error", err)
	}
}

// Connected marks the subscription as open.
func (c *Core) Connected() {
	c.connected = true
	c.lastErr = nil
}

// Disconnected marks the subscription as down.
func (c *Core) Disconnected(err error) {
	c.connected = false
	c.lastErr = err
}

// Clear empties the history. The icon is unchanged.
func (c *Core) Clear() {
	c.history.Clear()
	metrics.SetHistorySize(0)
}

// Reset returns the icon to idle. The history is unchanged.
func (c *Core) Reset() {
	c.icon = ""
}

// State snapshots the current presentation state.
func (c *Core) State() State {
	s := State{
		Topic:     c.topic,
		Icon:      c.icon,
		Connected: c.connected,
		Recent:    c.history.Recent(c.history.Cap()),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

type msgKind int

const (
	msgEvent msgKind = iota
	msgConnected
	msgDisconnected
	msgClear
	msgReset
	msgSnapshot
)

type message struct {
	kind  msgKind
	event model.Event
	err   error
	reply chan State
}

// Tray runs a Core on a dedicated goroutine. Its methods may be called from
// any goroutine; they are applied in order by Run.
type Tray struct {
	core   *Core
	render func(State)

	// Set by options, consumed by New.
	topic   string
	history *history.History
	out     output.Output

	inbox chan message
	done  chan struct{}
}

// Option configures a Tray.
type Option func(*Tray)

// WithOutput sends every event to out after it is recorded. Slow outputs
// should be wrapped in output/async.
func WithOutput(out output.Output) Option {
	return func(t *Tray) { t.out = out }
}

// WithRender installs a callback run on the tray goroutine after every
// state change.
func WithRender(fn func(State)) Option {
	return func(t *Tray) { t.render = fn }
}

// WithHistory replaces the default 25-entry history.
func WithHistory(h *history.History) Option {
	return func(t *Tray) { t.history = h }
}

// New creates a Tray for topic. Call Run to start processing.
func New(topic string, opts ...Option) *Tray {
	t := &Tray{
		topic: topic,
		inbox: make(chan message, defaultInboxSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.core = NewCore(t.topic, t.history, t.out)
	return t
}

// Run processes the inbox until ctx is done.
func (t *Tray) Run(ctx context.Context) error {
	defer close(t.done)
	t.emit()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-t.inbox:
			t.apply(ctx, m)
		}
	}
}

func (t *Tray) apply(ctx context.Context, m message) {
	switch m.kind {
	case msgEvent:
		t.core.Event(ctx, m.event)
	case msgConnected:
		t.core.Connected()
	case msgDisconnected:
		t.core.Disconnected(m.err)
	case msgClear:
		t.core.Clear()
	case msgReset:
		t.core.Reset()
	case msgSnapshot:
		m.reply <- t.core.State()
		return
	}
	t.emit()
}

func (t *Tray) emit() {
	if t.render != nil {
		t.render(t.core.State())
	}
}

// send enqueues m unless the tray has stopped.
func (t *Tray) send(m message) {
	select {
	case t.inbox <- m:
	case <-t.done:
	}
}

// OnEvent records a classified event.
func (t *Tray) OnEvent(e model.Event) { t.send(message{kind: msgEvent, event: e}) }

// OnConnected marks the subscription as open.
func (t *Tray) OnConnected() { t.send(message{kind: msgConnected}) }

// OnDisconnected marks the subscription as down.
func (t *Tray) OnDisconnected(err error) { t.send(message{kind: msgDisconnected, err: err}) }

// Clear empties the history. The icon is unchanged.
func (t *Tray) Clear() { t.send(message{kind: msgClear}) }

// Reset returns the icon to idle. The history is unchanged.
func (t *Tray) Reset() { t.send(message{kind: msgReset}) }

// Snapshot returns the current state, queued behind pending messages.
// It returns false if ctx ends or the tray stops first.
func (t *Tray) Snapshot(ctx context.Context) (State, bool) {
	reply := make(chan State, 1)
	select {
	case t.inbox <- message{kind: msgSnapshot, reply: reply}:
	case <-t.done:
		return State{}, false
	case <-ctx.Done():
		return State{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-t.done:
		return State{}, false
	case <-ctx.Done():
		return State{}, false
	}
}
