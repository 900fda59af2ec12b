package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtray_frames_total",
		Help: "Stream frames received, grouped by ntfy event type",
	}, []string{"event"})

	malformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobtray_frames_malformed_total",
		Help: "Stream lines dropped because they were not valid JSON or exceeded the line size limit",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtray_events_total",
		Help: "Job events delivered, grouped by classified status",
	}, []string{"status"})

	reconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtray_reconnects_total",
		Help: "Stream failures followed by a reconnect, grouped by failure kind",
	}, []string{"kind"})

	connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobtray_connected",
		Help: "1 while the topic subscription is open",
	})

	historySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jobtray_history_size",
		Help: "Events currently held in the in-memory history",
	})

	outputErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtray_output_errors_total",
		Help: "Presentation or output writes that failed, grouped by output",
	}, []string{"output"})
)

// ObserveFrame counts one parsed frame.
func ObserveFrame(event string) {
	if event == "" {
		event = "unknown"
	}
	framesTotal.WithLabelValues(event).Inc()
}

// ObserveMalformed counts one dropped, unparseable line.
func ObserveMalformed() {
	malformedTotal.Inc()
}

// ObserveEvent counts one delivered job event.
func ObserveEvent(status string) {
	eventsTotal.WithLabelValues(status).Inc()
}

// ObserveReconnect counts one stream failure of the given kind.
func ObserveReconnect(kind string) {
	reconnectsTotal.WithLabelValues(kind).Inc()
}

// SetConnected records the subscription state.
func SetConnected(up bool) {
	if up {
		connected.Set(1)
	} else {
		connected.Set(0)
	}
}

// SetHistorySize records the current history length.
func SetHistorySize(n int) {
	historySize.Set(float64(n))
}

// ObserveOutputError counts one failed output write.
func ObserveOutputError(output string) {
	outputErrors.WithLabelValues(output).Inc()
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
