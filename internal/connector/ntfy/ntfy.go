package ntfy

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
	"github.com/hejijunhao/jobtray/internal/metrics"
)

// MaxLineSize caps a single NDJSON frame. ntfy messages are limited to a few
// KiB server-side; longer lines are dropped without ending the session.
const MaxLineSize = 1 << 20

func init() {
	connector.Register("json", func() connector.Connector {
		return &Connector{}
	})
}

// Connector subscribes to a topic via ntfy's newline-delimited JSON stream
// (GET <server>/<topic>/json).
type Connector struct{}

func (c *Connector) Connect(ctx context.Context, cfg connector.ConnectorConfig) (connector.Session, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("ntfy connector: missing topic")
	}

	var opts []httpclient.Option
	if cfg.UserAgent != "" {
		opts = append(opts, httpclient.WithUserAgent(cfg.UserAgent))
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = connector.DefaultConnectTimeout
	}
	client := httpclient.New(timeout, opts...)

	body, err := client.Stream(ctx, connector.SubscribeURL(cfg.Server, cfg.Topic, "json"))
	if err != nil {
		return nil, fmt.Errorf("ntfy connector: %w", err)
	}
	return newSession(body), nil
}

type session struct {
	body io.ReadCloser
	r    *bufio.Reader

	closeOnce sync.Once
	closeErr  error
}

func newSession(body io.ReadCloser) *session {
	return &session{body: body, r: bufio.NewReaderSize(body, 4096)}
}

// Next returns the next line without its terminator. Blank lines are
// returned as-is; the consumer skips them. Lines longer than MaxLineSize are
// discarded and reading carries on with the following line.
func (s *session) Next() ([]byte, error) {
	for {
		line, tooLong, err := s.readLine()
		if tooLong {
			slog.Debug("skipping oversize frame", "limit", MaxLineSize)
			metrics.ObserveMalformed()
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			if err == io.EOF && len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
		return line, nil
	}
}

// readLine reads up to the next newline. Once the line grows past
// MaxLineSize the rest of it is read and dropped.
func (s *session) readLine() (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := s.r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > MaxLineSize+2 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		if !tooLong {
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			if len(line) > MaxLineSize {
				tooLong = true
				line = nil
			}
		}
		return line, tooLong, rerr
	}
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
