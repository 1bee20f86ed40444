package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodworks_pipeline_jobs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vodworks_pipeline_job_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	renditionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodworks_pipeline_renditions_total",
			Help: "Rendition attempts by tier and status",
		},
		[]string{"tier", "status"},
	)

	thumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodworks_pipeline_thumbnails_total",
			Help: "Thumbnail extraction attempts by status",
		},
		[]string{"status"},
	)

	retriesScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodworks_pipeline_retries_scheduled_total",
			Help: "Total number of retries handed back to the dispatcher",
		},
	)

	jobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodworks_pipeline_jobs_in_flight",
			Help: "Number of assets currently being processed",
		},
	)
)
