// Package metrics provides Prometheus metrics for the console core.
// Metrics are grouped by surface: RPC calls, content mutations, identity and notifications.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prismcms"

// Result label values.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultMissing = "missing"
	ResultError   = "error"
)

var (
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPC calls by method and status code",
		},
		[]string{"method", "code"},
	)

	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "RPC handling duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method"},
	)

	ContentMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "mutations_total",
			Help:      "Content mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	ContentItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "items",
			Help:      "Content items by status as of the last dashboard refresh",
		},
		[]string{"status"},
	)

	IdentityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "events_total",
			Help:      "Login, register, logout and reset requests by result",
		},
		[]string{"event", "result"},
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "published_total",
			Help:      "Notifications published by type",
		},
		[]string{"type"},
	)

	SettingsReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settings",
			Name:      "reloads_total",
			Help:      "Settings file reloads by result",
		},
		[]string{"result"},
	)
)

// ObserveRPC records one finished call.
func ObserveRPC(method, code string, took time.Duration) {
	RPCRequestsTotal.WithLabelValues(method, code).Inc()
	RPCRequestDuration.WithLabelValues(method).Observe(took.Seconds())
}

// ObserveMutation counts one content mutation.
func ObserveMutation(op, result string) {
	ContentMutationsTotal.WithLabelValues(op, result).Inc()
}

// ObserveIdentity counts one identity event.
func ObserveIdentity(event string, err error) {
	res := ResultOK
	if err != nil {
		res = ResultError
	}
	IdentityEventsTotal.WithLabelValues(event, res).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
