package wsock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
)

func init() {
	connector.Register("ws", func() connector.Connector {
		return &Connector{}
	})
}

// Connector subscribes to a topic over ntfy's WebSocket endpoint
// (<server>/<topic>/ws). Each text message carries one JSON frame.
type Connector struct{}

// WebSocketURL rewrites an http(s) subscribe URL to ws(s).
func WebSocketURL(server, topic string) string {
	u := connector.SubscribeURL(server, topic, "ws")
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Connector) Connect(ctx context.Context, cfg connector.ConnectorConfig) (connector.Session, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("ws connector: missing topic")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = connector.DefaultConnectTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	header := http.Header{}
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, resp, err := dialer.DialContext(dialCtx, WebSocketURL(cfg.Server, cfg.Topic), header)
	if err != nil {
		if resp != nil && errors.Is(err, websocket.ErrBadHandshake) {
			return nil, fmt.Errorf("ws connector: %w", handshakeError(resp))
		}
		return nil, fmt.Errorf("ws connector: %w", err)
	}
	return newSession(ctx, conn), nil
}

func handshakeError(resp *http.Response) error {
	var body string
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		body = string(b)
	}
	return &httpclient.APIError{StatusCode: resp.StatusCode, Body: body}
}

type session struct {
	conn *websocket.Conn
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newSession(ctx context.Context, conn *websocket.Conn) *session {
	s := &session{conn: conn, done: make(chan struct{})}
	// A blocked ReadMessage only returns once the connection closes.
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

// Next returns the next text or binary message. Any close frame from the
// server, or an abrupt end of the TCP stream, surfaces as io.EOF.
func (s *session) Next() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, fmt.Errorf("ws connector: %w (%v)", io.EOF, ce)
		}
		return nil, err
	}
	return data, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
