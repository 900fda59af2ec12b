package ntfy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/jobtray/internal/connector"
	"github.com/hejijunhao/jobtray/internal/connector/httpclient"
)

func TestConnect_ReadsLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hpc-jobs/json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("{\"event\":\"open\"}\n\n{\"event\":\"message\",\"message\":\"Job 1 started\"}\n"))
	}))
	defer srv.Close()

	c := &Connector{}
	sess, err := c.Connect(context.Background(), connector.ConnectorConfig{
		Server:         srv.URL,
		Topic:          "hpc-jobs",
		ConnectTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	want := []string{`{"event":"open"}`, ``, `{"event":"message","message":"Job 1 started"}`}
	for i, w := range want {
		line, err := sess.Next()
		if err != nil {
			t.Fatalf("line %d: unexpected error: %v", i, err)
		}
		if string(line) != w {
			t.Fatalf("line %d: expected %q, got %q", i, w, line)
		}
	}
	if _, err := sess.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestConnect_TrailingSlashServer(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	sess, err := (&Connector{}).Connect(context.Background(), connector.ConnectorConfig{
		Server: srv.URL + "/",
		Topic:  "t1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess.Close()
	if gotPath != "/t1/json" {
		t.Fatalf("expected '/t1/json', got %q", gotPath)
	}
}

func TestConnect_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := (&Connector{}).Connect(context.Background(), connector.ConnectorConfig{
		Server: srv.URL,
		Topic:  "t",
	})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected wrapped *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", apiErr.StatusCode)
	}
}

func TestConnect_MissingTopic(t *testing.T) {
	_, err := (&Connector{}).Connect(context.Background(), connector.ConnectorConfig{Server: "http://127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestSession_OversizeLineSkipped(t *testing.T) {
	huge := strings.Repeat("a", MaxLineSize+10)
	body := io.NopCloser(strings.NewReader(`{"event":"open"}` + "\n" + huge + "\n" + `{"event":"message","message":"job 3 done"}` + "\r\nlast"))
	sess := newSession(body)

	want := []string{`{"event":"open"}`, `{"event":"message","message":"job 3 done"}`, "last"}
	for _, w := range want {
		line, err := sess.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(line) != w {
			t.Fatalf("expected %q, got %.40q", w, line)
		}
	}
	if _, err := sess.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSession_OversizeLineAtEOF(t *testing.T) {
	sess := newSession(io.NopCloser(strings.NewReader(strings.Repeat("b", MaxLineSize+1))))
	if _, err := sess.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestSession_LineAtLimitKept(t *testing.T) {
	exact := strings.Repeat("c", MaxLineSize)
	sess := newSession(io.NopCloser(strings.NewReader(exact + "\r\n")))
	line, err := sess.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(line) != MaxLineSize {
		t.Fatalf("expected %d bytes, got %d", MaxLineSize, len(line))
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	sess := newSession(io.NopCloser(strings.NewReader("")))
	if err := sess.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestRegistered(t *testing.T) {
	ctor, err := connector.Get("json")
	if err != nil {
		t.Fatalf("expected json transport registered: %v", err)
	}
	if _, ok := ctor().(*Connector); !ok {
		t.Fatal("expected *ntfy.Connector")
	}
}
