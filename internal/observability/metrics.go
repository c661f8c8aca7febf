package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PhotosIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photoshare",
		Name:      "photos_ingested_total",
		Help:      "Total number of photos accepted into groups",
	})

	PhotosShared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photoshare",
		Name:      "photos_shared_total",
		Help:      "Total number of instantly shared photos",
	})

	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photoshare",
		Name:      "duplicates_skipped_total",
		Help:      "Total number of uploads dropped by content dedup",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photoshare",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected in uploads",
	})

	FacesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "photoshare",
		Name:      "faces_matched_total",
		Help:      "Total number of faces matched to registered users",
	})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photoshare",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of pipeline invocations",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photoshare",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
