package connector

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// DefaultServer is the public ntfy instance.
const DefaultServer = "https://ntfy.sh"

// DefaultConnectTimeout bounds dialing and the TLS handshake. There is no
// read timeout: the stream idles between keepalives.
const DefaultConnectTimeout = 10 * time.Second

// Connector opens subscriptions to a notification topic.
type Connector interface {
	// Connect opens one long-lived subscription. The returned Session yields
	// raw frame payloads until the stream ends or fails.
	Connect(ctx context.Context, cfg ConnectorConfig) (Session, error)
}

// Session is one open subscription.
type Session interface {
	// Next blocks until the next raw payload (one line or one message) is
	// available. It returns io.EOF when the server ends the stream.
	Next() ([]byte, error)

	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// ConnectorConfig holds subscription settings.
type ConnectorConfig struct {
	Provider       string
	Server         string
	Topic          string
	ConnectTimeout time.Duration
	UserAgent      string
}

// SubscribeURL joins server, topic, and the stream suffix ("json", "ws").
func SubscribeURL(server, topic, suffix string) string {
	if server == "" {
		server = DefaultServer
	}
	return strings.TrimRight(server, "/") + "/" + url.PathEscape(topic) + "/" + suffix
}
