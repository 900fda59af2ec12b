package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
)

// FailureKind selects the reconnect backoff for a failed session.
type FailureKind int

const (
	// FailureConnection covers refused or reset connections, dial and
	// handshake timeouts, and streams the server ended.
	FailureConnection FailureKind = iota
	// FailureOther is everything else: HTTP status errors, oversize frames,
	// unexpected transport errors.
	FailureOther
)

// Default reconnect delays per failure kind.
const (
	DefaultConnectionBackoff = 5 * time.Second
	DefaultOtherBackoff      = 10 * time.Second
)

func (k FailureKind) String() string {
	if k == FailureConnection {
		return "connection"
	}
	return "other"
}

// Classify maps a session error to its failure kind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureConnection
	}

	var apiErr *httpclient.APIError
	if errors.As(err, &apiErr) {
		return FailureOther
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, context.DeadlineExceeded) {
		return FailureConnection
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE,
			syscall.ETIMEDOUT, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return FailureConnection
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureConnection
	}
	return FailureOther
}
