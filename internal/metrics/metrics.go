// Package metrics provides Prometheus metrics for the portfolio server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Profile metrics
	profileSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_profile_selections_total",
			Help: "Profiles selected, by normalized role",
		},
		[]string{"role"},
	)

	profileRestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_profile_restores_total",
			Help: "Session profile restores, by outcome (restored, empty, corrupt)",
		},
		[]string{"outcome"},
	)

	profileRedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_profile_redirects_total",
			Help: "Profile confirmations that left the site",
		},
	)

	// Loading gauge metrics
	gaugeCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_gauge_completions_total",
			Help: "Loading gauge completions, by trigger (animation, failsafe)",
		},
		[]string{"trigger"},
	)

	gaugeCallbackPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_gauge_callback_panics_total",
			Help: "Panics recovered from gauge completion callbacks",
		},
	)

	// File tree metrics
	fileTreeLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_filetree_loads_total",
			Help: "File tree loads, by result (ok, error)",
		},
		[]string{"result"},
	)

	fileTreeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_filetree_nodes",
			Help: "Number of nodes in the last loaded file tree",
		},
	)

	// Contact metrics
	contactMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_contact_messages_total",
			Help: "Contact form submissions, by status",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProfileSelection counts a completed profile selection.
func RecordProfileSelection(role string) {
	profileSelectionsTotal.WithLabelValues(role).Inc()
}

// RecordProfileRestore counts a session restore attempt.
func RecordProfileRestore(outcome string) {
	profileRestoresTotal.WithLabelValues(outcome).Inc()
}

// RecordProfileRedirect counts an external profile redirect.
func RecordProfileRedirect() {
	profileRedirectsTotal.Inc()
}

// RecordGaugeCompletion counts which trigger finished a gauge run.
func RecordGaugeCompletion(trigger string) {
	gaugeCompletionsTotal.WithLabelValues(trigger).Inc()
}

// RecordGaugeCallbackPanic counts a recovered completion panic.
func RecordGaugeCallbackPanic() {
	gaugeCallbackPanicsTotal.Inc()
}

// RecordFileTreeLoad counts a tree load and, on success, its size.
func RecordFileTreeLoad(err error, nodes int) {
	if err != nil {
		fileTreeLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	fileTreeLoadsTotal.WithLabelValues("ok").Inc()
	fileTreeNodes.Set(float64(nodes))
}

// RecordContactMessage counts a contact submission.
func RecordContactMessage(status string) {
	contactMessagesTotal.WithLabelValues(status).Inc()
}
