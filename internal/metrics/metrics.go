package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomdrop_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomdrop_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdrop_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	RoomsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdrop_rooms_deleted_total",
			Help: "Total rooms destroyed by their host",
		},
	)

	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomdrop_messages_posted_total",
			Help: "Total messages posted",
		},
		[]string{"type"}, // text, image, pdf, file
	)

	UploadsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdrop_uploads_stored_total",
			Help: "Total file uploads stored",
		},
	)

	// Storage metrics
	StorageFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomdrop_storage_fallbacks_total",
			Help: "Times the facade degraded from redis to the in-memory store",
		},
	)

	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomdrop_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)
