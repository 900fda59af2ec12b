package connector

import (
	"context"
	"testing"
)

type nopConnector struct{}

func (nopConnector) Connect(context.Context, ConnectorConfig) (Session, error) { return nil, nil }

func TestSubscribeURL(t *testing.T) {
	tests := []struct {
		server, topic, suffix, want string
	}{
		{"https://ntfy.sh", "hpc-jobs", "json", "https://ntfy.sh/hpc-jobs/json"},
		{"https://ntfy.example.com/", "abc", "json", "https://ntfy.example.com/abc/json"},
		{"", "abc", "ws", "https://ntfy.sh/abc/ws"},
		{"http://localhost:8080", "a b", "json", "http://localhost:8080/a%20b/json"},
	}
	for _, tt := range tests {
		if got := SubscribeURL(tt.server, tt.topic, tt.suffix); got != tt.want {
			t.Errorf("SubscribeURL(%q, %q, %q) = %q, want %q", tt.server, tt.topic, tt.suffix, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	Register("test-nop", func() Connector { return nopConnector{} })
	defer delete(registry, "test-nop")

	ctor, err := Get("test-nop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ctor().(nopConnector); !ok {
		t.Fatal("constructor returned wrong type")
	}
	found := false
	for _, p := range Providers() {
		if p == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Providers() = %v, missing test-nop", Providers())
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("carrier-pigeon"); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
