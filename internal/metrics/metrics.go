// Package metrics registers Prometheus collectors for the ingestion service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsTotal counts upserted records by outcome (created, updated, error).
	RecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogingest",
		Name:      "records_total",
		Help:      "Records written to the store, by outcome.",
	}, []string{"outcome"})

	// BatchesTotal counts batch calls by status (ok, failed, retried).
	BatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogingest",
		Name:      "batches_total",
		Help:      "Batch upsert calls, by status.",
	}, []string{"status"})

	// RecordsSkipped counts records dropped before the store (invalid, duplicate).
	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogingest",
		Name:      "records_skipped_total",
		Help:      "Records dropped before reaching the store, by reason.",
	}, []string{"reason"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blogingest",
		Name:      "http_requests_total",
		Help:      "API requests, by route and status code.",
	}, []string{"route", "code"})

	// HTTPDuration observes API latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blogingest",
		Name:      "http_request_duration_seconds",
		Help:      "API request latency, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
