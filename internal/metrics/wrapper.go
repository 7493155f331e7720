package metrics

import (
	"time"

	"kernelpipe/internal/ml/embed"
	"kernelpipe/internal/ml/svm"
)

var (
	_ svm.MetricsInterface   = (*Recorder)(nil)
	_ embed.MetricsInterface = (*Recorder)(nil)
)

// Recorder adapts Metrics to the metrics interfaces of the ml packages.
// A nil *Recorder is valid and records nothing, but pass a nil interface to the ml
// packages rather than a typed nil where possible.
type Recorder struct {
	m *Metrics
}

func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

func (r *Recorder) KernelCacheHitsInc() {
	if r == nil {
		return
	}
	r.m.KernelCacheHits.Inc()
}

func (r *Recorder) KernelCacheMissesInc() {
	if r == nil {
		return
	}
	r.m.KernelCacheMisses.Inc()
}

func (r *Recorder) SVMTrainingsInc() {
	if r == nil {
		return
	}
	r.m.SVMTrainings.Inc()
}

func (r *Recorder) SVMIterationsObserve(v float64) {
	if r == nil {
		return
	}
	r.m.SVMIterations.Observe(v)
}

func (r *Recorder) SVMTrainingDurationObserve(v float64) {
	if r == nil {
		return
	}
	r.m.SVMTrainingDuration.Observe(v)
}

func (r *Recorder) SVMConvergenceWarningsInc() {
	if r == nil {
		return
	}
	r.m.SVMConvergenceWarnings.Inc()
}

func (r *Recorder) SVMPredictionsAdd(v float64) {
	if r == nil {
		return
	}
	r.m.SVMPredictions.Add(v)
}

func (r *Recorder) SVMPredictionLatencyObserve(v float64) {
	if r == nil {
		return
	}
	r.m.SVMPredictionLatency.Observe(v)
}

func (r *Recorder) EmbeddingFitsInc() {
	if r == nil {
		return
	}
	r.m.EmbeddingFits.Inc()
}

func (r *Recorder) EmbeddingFitDurationObserve(v float64) {
	if r == nil {
		return
	}
	r.m.EmbeddingFitDuration.Observe(v)
}

func (r *Recorder) EmbeddingTransformsAdd(v float64) {
	if r == nil {
		return
	}
	r.m.EmbeddingTransforms.Add(v)
}

// ObserveStage records how long a pipeline stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// StageErrorInc counts a failed pipeline stage.
func (r *Recorder) StageErrorInc(stage string) {
	if r == nil {
		return
	}
	r.m.ErrorsTotal.WithLabelValues(stage).Inc()
}
