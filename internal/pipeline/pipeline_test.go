package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
	"github.com/hejijunhao/jobtray/internal/engine"
	"github.com/hejijunhao/jobtray/internal/model"
)

// --- mocks ---

// step scripts one Connect call: either a connect error, or a session that
// yields lines and then ends with err (io.EOF when nil).
type step struct {
	connectErr error
	lines      []string
	err        error
}

type mockConnector struct {
	mu      sync.Mutex
	steps   []step
	configs []connector.ConnectorConfig
}

func (m *mockConnector) Connect(ctx context.Context, cfg connector.ConnectorConfig) (connector.Session, error) {
	m.mu.Lock()
	i := len(m.configs)
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()

	if i >= len(m.steps) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := m.steps[i]
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return &mockSession{lines: s.lines, err: s.err}, nil
}

func (m *mockConnector) Calls() []connector.ConnectorConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]connector.ConnectorConfig(nil), m.configs...)
}

type mockSession struct {
	lines  []string
	err    error
	pos    int
	closed bool
}

func (s *mockSession) Next() ([]byte, error) {
	if s.pos < len(s.lines) {
		line := s.lines[s.pos]
		s.pos++
		return []byte(line), nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func (s *mockSession) Close() error {
	s.closed = true
	return nil
}

type recordingHandler struct {
	mu          sync.Mutex
	events      []model.Event
	connected   int
	disconnects []error
}

func (h *recordingHandler) OnEvent(e model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHandler) OnConnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnDisconnected(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects = append(h.disconnects, err)
}

func (h *recordingHandler) Events() []model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Event(nil), h.events...)
}

// sleepRecorder records requested delays. It cancels the run once it has
// been called stopAfter times.
type sleepRecorder struct {
	delays    []time.Duration
	stopAfter int
	cancel    context.CancelFunc
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	if len(r.delays) >= r.stopAfter {
		r.cancel()
		return ctx.Err()
	}
	return nil
}

var testCfg = connector.ConnectorConfig{Provider: "json", Server: "https://ntfy.example", Topic: "hpc-jobs"}

func runScript(t *testing.T, steps []step, stopAfter int) (*mockConnector, *recordingHandler, *sleepRecorder, *Consumer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &mockConnector{steps: steps}
	h := &recordingHandler{}
	rec := &sleepRecorder{stopAfter: stopAfter, cancel: cancel}
	c := New(conn, engine.New(nil, nil), h, testCfg, WithSleep(rec.Sleep))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	return conn, h, rec, c
}

// --- tests ---

func TestConsumer_EndToEnd(t *testing.T) {
	_, h, rec, c := runScript(t, []step{{lines: []string{
		`{"event":"open"}`,
		`{"event":"keepalive"}`,
		`{"event":"message","message":"Job 4821 started running"}`,
		`{"event":"message","message":"Job 4821 failed: OOM"}`,
	}}}, 1)

	if h.connected != 1 {
		t.Fatalf("expected OnConnected once, got %d", h.connected)
	}
	events := h.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Status != model.Started || events[1].Status != model.Failed {
		t.Fatalf("expected started then failed, got %s then %s", events[0].Status, events[1].Status)
	}
	for i, e := range events {
		if e.JobID != "4821" {
			t.Fatalf("event %d: expected job id 4821, got %q", i, e.JobID)
		}
	}
	if len(rec.delays) != 1 || rec.delays[0] != DefaultConnectionBackoff {
		t.Fatalf("expected one 5s backoff after stream end, got %v", rec.delays)
	}
	if c.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", c.State())
	}
}

func TestConsumer_ReconnectsToSameURL(t *testing.T) {
	conn, h, rec, _ := runScript(t, []step{
		{lines: []string{`{"event":"open"}`, `{"event":"message","message":"Job 1 started"}`}, err: io.ErrUnexpectedEOF},
		{lines: []string{`{"event":"open"}`, `{"event":"message","message":"Job 1 completed"}`}},
	}, 2)

	calls := conn.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 connects, got %d", len(calls))
	}
	if calls[0] != calls[1] {
		t.Fatalf("expected identical reconnect config, got %+v and %+v", calls[0], calls[1])
	}
	if rec.delays[0] != 5*time.Second {
		t.Fatalf("expected 5s backoff after drop, got %v", rec.delays[0])
	}
	if h.connected != 2 {
		t.Fatalf("expected 2 open frames, got %d", h.connected)
	}
	events := h.Events()
	if len(events) != 2 || events[1].Status != model.Finished {
		t.Fatalf("expected delivery to resume after reconnect, got %+v", events)
	}
	if len(h.disconnects) != 2 {
		t.Fatalf("expected 2 disconnect notifications, got %d", len(h.disconnects))
	}
}

func TestConsumer_MalformedLineSkipped(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		`{"event":"message","message":"job 1 queued"}`,
		`not-json`,
		`{"event":"message","message":"job 2 done"}`,
		`null`,
		`{"event":"message","message":`,
	}}}, 1)

	events := h.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events around the bad lines, got %d", len(events))
	}
	if events[0].JobID != "1" || events[1].JobID != "2" {
		t.Fatalf("unexpected job ids %q, %q", events[0].JobID, events[1].JobID)
	}
}

func TestConsumer_MistypedExtraFieldsDelivered(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		`{"event":"message","id":42,"message":"job 1 started"}`,
		`{"event":"message","time":"2024-05-01T00:00:00Z","message":"job 2 completed"}`,
		`{"event":"message","priority":5,"topic":["a"],"message":"job 3 failed"}`,
	}}}, 1)

	events := h.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].ID != "42" {
		t.Fatalf("expected numeric id kept as text, got %q", events[0].ID)
	}
	if events[1].Status != model.Finished || events[2].Status != model.Failed {
		t.Fatalf("unexpected statuses %s, %s", events[1].Status, events[2].Status)
	}
}

func TestConsumer_MistypedMessageRejected(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		`{"event":"message","message":7}`,
		`{"event":"message","title":{"x":1},"message":"job 4 started"}`,
		`{"event":"message","message":"job 5 started"}`,
	}}}, 1)

	events := h.Events()
	if len(events) != 1 || events[0].JobID != "5" {
		t.Fatalf("expected only job 5, got %+v", events)
	}
}

func TestConsumer_BlankLinesSkipped(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		"",
		"   ",
		`{"event":"message","message":"launched"}`,
	}}}, 1)

	if n := len(h.Events()); n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
}

func TestConsumer_UnknownEventTypeDelivered(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		`{"event":"poll_request","message":"job 9 killed"}`,
	}}}, 1)

	events := h.Events()
	if len(events) != 1 || events[0].Status != model.Failed {
		t.Fatalf("expected one failed event, got %+v", events)
	}
}

func TestConsumer_MissingMessageUsesPlaceholder(t *testing.T) {
	_, h, _, _ := runScript(t, []step{{lines: []string{
		`{"event":"message","title":"Job 77"}`,
	}}}, 1)

	events := h.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Message != engine.PlaceholderMessage {
		t.Fatalf("expected placeholder, got %q", events[0].Message)
	}
	if events[0].JobID != "77" {
		t.Fatalf("expected job id from title, got %q", events[0].JobID)
	}
	if events[0].Status != model.Started {
		t.Fatalf("expected default status, got %s", events[0].Status)
	}
}

func TestConsumer_OtherFailureUsesLongBackoff(t *testing.T) {
	_, h, rec, _ := runScript(t, []step{
		{connectErr: &httpclient.APIError{StatusCode: 502, Body: "bad gateway"}},
		{connectErr: errors.New("connect: connection refused")},
	}, 2)

	if rec.delays[0] != DefaultOtherBackoff {
		t.Fatalf("expected 10s backoff for HTTP error, got %v", rec.delays[0])
	}
	if h.connected != 0 {
		t.Fatalf("expected no open frames, got %d", h.connected)
	}
}

func TestConsumer_CustomBackoff(t *testing.T) {
	c := New(&mockConnector{}, nil, &recordingHandler{}, testCfg, WithBackoff(time.Millisecond, 2*time.Millisecond))
	if c.Backoff(FailureConnection) != time.Millisecond {
		t.Fatalf("unexpected connection backoff %v", c.Backoff(FailureConnection))
	}
	if c.Backoff(FailureOther) != 2*time.Millisecond {
		t.Fatalf("unexpected other backoff %v", c.Backoff(FailureOther))
	}
}

func TestConsumer_ShouldContinueStopsBetweenLines(t *testing.T) {
	h := &recordingHandler{}
	conn := &mockConnector{steps: []step{{lines: []string{
		`{"event":"message","message":"job 1 started"}`,
		`{"event":"message","message":"job 2 started"}`,
		`{"event":"message","message":"job 3 started"}`,
	}}}}
	slept := false
	c := New(conn, nil, h, testCfg,
		WithShouldContinue(func() bool { return len(h.Events()) < 2 }),
		WithSleep(func(context.Context, time.Duration) error { slept = true; return nil }),
	)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("expected nil on predicate stop, got %v", err)
	}
	if n := len(h.Events()); n != 2 {
		t.Fatalf("expected 2 events before stop, got %d", n)
	}
	if slept {
		t.Fatal("expected no backoff on shutdown")
	}
	if len(h.disconnects) != 0 {
		t.Fatalf("expected no disconnect notification on shutdown, got %d", len(h.disconnects))
	}
	if c.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", c.State())
	}
}

func TestConsumer_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &mockConnector{}
	c := New(conn, nil, &recordingHandler{}, testCfg)
	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(conn.Calls()) != 0 {
		t.Fatal("expected no connect attempt")
	}
}

func TestConsumer_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &mockConnector{steps: []step{{connectErr: io.EOF}}}
	h := &recordingHandler{}
	c := New(conn, nil, h, testCfg, WithBackoff(time.Hour, time.Hour))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Wait for the first failure to be reported, then cancel mid-sleep.
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.mu.Lock()
		n := len(h.disconnects)
		h.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no disconnect reported")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return during backoff")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateStopped:      "stopped",
		State(42):         "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
