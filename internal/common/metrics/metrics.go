package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_provider_calls_total",
			Help: "Provider calls by provider and outcome (success, retry, fatal)",
		},
		[]string{"provider", "outcome"},
	)

	FallbacksUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_fallbacks_total",
			Help: "Times a component substituted its built-in default",
		},
		[]string{"component"},
	)

	ImageJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_image_jobs_total",
			Help: "Image jobs by terminal state",
		},
		[]string{"state"},
	)

	ImagePolls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_image_polls",
			Help:    "Poll requests needed per image job",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 150},
		},
	)

	PersistenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_persistence_writes_total",
			Help: "Persistence attempts by tier and result",
		},
		[]string{"tier", "operation", "result"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Pipeline runs by status",
		},
		[]string{"status"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_prediction_duration_seconds",
			Help:    "End-to-end pipeline duration",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)
