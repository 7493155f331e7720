// Package metrics provides Prometheus metrics collection for the kernel pipeline.
// It defines the training, inference, kernel cache, and embedding metrics and an
// adapter that satisfies the small metrics interfaces accepted by the ml packages.
//
// Metrics are registered on a caller-supplied registerer; exposing them is left to
// the embedding application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// SVM training metrics
	SVMTrainings           prometheus.Counter   // Total number of SVM training runs
	SVMIterations          prometheus.Histogram // Optimizer iterations per training run
	SVMTrainingDuration    prometheus.Histogram // Duration of SVM training runs
	SVMConvergenceWarnings prometheus.Counter   // Training runs that stopped before converging

	// SVM inference metrics
	SVMPredictions       prometheus.Counter   // Total number of samples classified
	SVMPredictionLatency prometheus.Histogram // Latency of one Apply call

	// Kernel cache metrics
	KernelCacheHits   prometheus.Counter // Kernel rows served from cache
	KernelCacheMisses prometheus.Counter // Kernel rows computed

	// Embedding metrics
	EmbeddingFits        prometheus.Counter   // Total number of LLE fits
	EmbeddingFitDuration prometheus.Histogram // Duration of LLE fits
	EmbeddingTransforms  prometheus.Counter   // Total number of samples projected

	// Pipeline metrics
	StageDuration *prometheus.HistogramVec // Duration of pipeline stages by stage name
	ErrorsTotal   *prometheus.CounterVec   // Pipeline errors by stage name
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		SVMTrainings: factory.NewCounter(prometheus.CounterOpts{
			Name: "svm_trainings_total",
			Help: "Total number of SVM training runs",
		}),
		SVMIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "svm_iterations",
			Help:    "Optimizer iterations per SVM training run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		SVMTrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "svm_training_duration_seconds",
			Help:    "Duration of SVM training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		SVMConvergenceWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "svm_convergence_warnings_total",
			Help: "Total number of SVM training runs that stopped before converging",
		}),
		SVMPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "svm_predictions_total",
			Help: "Total number of samples classified",
		}),
		SVMPredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "svm_prediction_latency_seconds",
			Help:    "Latency of a batch classification call in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		KernelCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_cache_hits_total",
			Help: "Total number of kernel rows served from cache",
		}),
		KernelCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "kernel_cache_misses_total",
			Help: "Total number of kernel rows computed",
		}),
		EmbeddingFits: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_fits_total",
			Help: "Total number of locally linear embedding fits",
		}),
		EmbeddingFitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "embedding_fit_duration_seconds",
			Help:    "Duration of locally linear embedding fits in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		EmbeddingTransforms: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_transforms_total",
			Help: "Total number of samples projected by a fitted embedding",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_errors_total",
			Help: "Total number of pipeline errors by stage",
		}, []string{"stage"}),
	}
}

// CacheHitRate returns hits / (hits + misses) from the given counters' current
// values, or 0 before any lookup.
func CacheHitRate(hits, misses float64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return hits / total
}
