package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFrame(t *testing.T) {
	before := testutil.ToFloat64(framesTotal.WithLabelValues("keepalive"))
	ObserveFrame("keepalive")
	ObserveFrame("keepalive")
	after := testutil.ToFloat64(framesTotal.WithLabelValues("keepalive"))
	if after-before != 2 {
		t.Fatalf("expected +2 keepalive frames, got %v", after-before)
	}
}

func TestObserveFrame_EmptyEvent(t *testing.T) {
	before := testutil.ToFloat64(framesTotal.WithLabelValues("unknown"))
	ObserveFrame("")
	if got := testutil.ToFloat64(framesTotal.WithLabelValues("unknown")); got-before != 1 {
		t.Fatalf("expected empty event counted as unknown, delta %v", got-before)
	}
}

func TestObserveEventAndReconnect(t *testing.T) {
	ev := testutil.ToFloat64(eventsTotal.WithLabelValues("failed"))
	rc := testutil.ToFloat64(reconnectsTotal.WithLabelValues("connection"))
	mf := testutil.ToFloat64(malformedTotal)

	ObserveEvent("failed")
	ObserveReconnect("connection")
	ObserveMalformed()

	if testutil.ToFloat64(eventsTotal.WithLabelValues("failed"))-ev != 1 {
		t.Fatal("expected failed event counted")
	}
	if testutil.ToFloat64(reconnectsTotal.WithLabelValues("connection"))-rc != 1 {
		t.Fatal("expected connection reconnect counted")
	}
	if testutil.ToFloat64(malformedTotal)-mf != 1 {
		t.Fatal("expected malformed line counted")
	}
}

func TestSetConnected(t *testing.T) {
	SetConnected(true)
	if testutil.ToFloat64(connected) != 1 {
		t.Fatal("expected gauge 1 when connected")
	}
	SetConnected(false)
	if testutil.ToFloat64(connected) != 0 {
		t.Fatal("expected gauge 0 when disconnected")
	}
}

func TestHistoryAndOutputErrors(t *testing.T) {
	SetHistorySize(25)
	if testutil.ToFloat64(historySize) != 25 {
		t.Fatal("expected history size 25")
	}
	before := testutil.ToFloat64(outputErrors.WithLabelValues("webhook"))
	ObserveOutputError("webhook")
	if testutil.ToFloat64(outputErrors.WithLabelValues("webhook"))-before != 1 {
		t.Fatal("expected webhook error counted")
	}
}

func TestHandler(t *testing.T) {
	ObserveEvent("started")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "jobtray_events_total") {
		t.Fatalf("expected jobtray_events_total in exposition, got:\n%s", body)
	}
}
