// Package services – Prometheus collectors for the click pipeline.
//
// HTTP-level metrics live in the middleware package; the collectors here
// measure the pipeline itself: ingestion outcomes, retry processing, and
// queue depth. Label cardinality is fixed and small.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// outcomeStored: the event landed in the event store directly.
	outcomeStored = "stored"
	// outcomeQueued: the store write failed; the event was parked on the
	// retry queue.
	outcomeQueued = "queued"
	// outcomeLost: both the write and the fallback enqueue failed.
	outcomeLost = "lost"
)

var (
	// clicksTracked counts tracking calls by where the event ended up.
	clicksTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicks_tracked_total",
			Help: "Total click tracking calls by outcome (stored/queued/lost).",
		},
		[]string{"outcome"},
	)

	// retryProcessed counts queue items successfully replayed.
	retryProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_queue_processed_total",
			Help: "Total retry queue items successfully replayed.",
		},
	)

	// retryFailed counts per-item replay failures (each one pushes the item
	// further out on its backoff schedule).
	retryFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_queue_failed_total",
			Help: "Total retry queue replay failures.",
		},
	)

	// queueDepth gauges the current per-bucket queue sizes.
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retry_queue_depth",
			Help: "Current retry queue rows by bucket (pending/processed/failed).",
		},
		[]string{"bucket"},
	)

	// compacted counts rows removed by the post-run compaction pass.
	compacted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_queue_compacted_total",
			Help: "Total processed retry queue rows deleted by compaction.",
		},
	)
)

func init() {
	prometheus.MustRegister(clicksTracked, retryProcessed, retryFailed, queueDepth, compacted)
}
