// Package metrics exposes the Prometheus instruments shared across the
// service. Everything is registered on the default registry via promauto,
// so importing the package is enough to wire a collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ImportsTotal counts statement imports by outcome: succeeded, empty
	// or failed.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grana",
		Subsystem: "import",
		Name:      "statements_total",
		Help:      "Statement imports by outcome.",
	}, []string{"outcome"})

	// ImportRowsTotal counts statement rows by result: parsed or skipped.
	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grana",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Statement rows by parse result.",
	}, []string{"result"})

	// ImportDuration tracks end-to-end statement processing time.
	ImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "grana",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "End-to-end statement processing time.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequestsTotal counts served requests by route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grana",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status class.",
	}, []string{"route", "status"})

	// HTTPRequestDuration tracks request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grana",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// CronRunsTotal counts scheduled job executions by job and outcome.
	CronRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grana",
		Subsystem: "cron",
		Name:      "runs_total",
		Help:      "Scheduled job executions by job and outcome.",
	}, []string{"job", "outcome"})
)

// Handler serves the default registry, mounted at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
