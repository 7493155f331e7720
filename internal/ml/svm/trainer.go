// Package svm implements a binary kernel support vector machine trained with an
// MPD-style coordinate ascent on the dual problem, with the bias folded into the kernel.
package svm

import (
	"math"
	"time"

	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml/kernel"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the trainer and its models.
// A nil MetricsInterface disables metrics.
type MetricsInterface interface {
	kernel.CacheMetrics
	SVMTrainingsInc()
	SVMIterationsObserve(float64)
	SVMTrainingDurationObserve(float64)
	SVMConvergenceWarningsInc()
	SVMPredictionsAdd(float64)
	SVMPredictionLatencyObserve(float64)
}

// TrainerConfig holds the optimizer settings.
type TrainerConfig struct {
	C             float64 // box constraint, > 0
	Epsilon       float64 // stop when the largest KKT violation drops below this, > 0
	MaxIterations int     // coordinate updates before giving up, > 0
	CacheSize     int     // kernel rows kept in the LRU cache, 0 disables caching
}

// DefaultTrainerConfig mirrors the settings of the reference classifier workflow.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		C:             common.DefaultSVMC,
		Epsilon:       common.DefaultSVMEpsilon,
		MaxIterations: common.DefaultSVMMaxIterations,
		CacheSize:     common.DefaultKernelCacheSize,
	}
}

func (c TrainerConfig) validate() error {
	if !(c.C > 0) || math.IsInf(c.C, 0) {
		return common.NewParameterError("C", c.C, "must be a finite value > 0")
	}
	if !(c.Epsilon > 0) || math.IsInf(c.Epsilon, 0) {
		return common.NewParameterError("epsilon", c.Epsilon, "must be a finite value > 0")
	}
	if c.MaxIterations <= 0 {
		return common.NewParameterError("max iterations", c.MaxIterations, "must be > 0")
	}
	if c.CacheSize < 0 {
		return common.NewParameterError("cache size", c.CacheSize, "must be >= 0")
	}
	return nil
}

// Trainer fits Models. It holds no per-fit state and may be reused.
type Trainer struct {
	cfg     TrainerConfig
	kernel  kernel.Kernel
	metrics MetricsInterface
}

// NewTrainer validates cfg and binds it to k.
func NewTrainer(cfg TrainerConfig, k kernel.Kernel, metrics MetricsInterface) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if k == nil {
		return nil, common.NewParameterError("kernel", nil, "must not be nil")
	}
	return &Trainer{cfg: cfg, kernel: k, metrics: metrics}, nil
}

// Config returns the trainer settings.
func (t *Trainer) Config() TrainerConfig { return t.cfg }

// Fit trains a classifier on X with labels y.
//
// The dual maximised is sum(a) - 1/2 a'Ha subject to 0 <= a_i <= C, where
// H_ij = y_i y_j (K(x_i, x_j) + 1). Each iteration updates the coordinate with the
// largest projected-gradient violation by a clipped Newton step.
//
// When MaxIterations is exhausted first, or a step no longer changes the solution
// (Report.Stalled), Fit returns the final model together with a
// *common.ConvergenceWarning. The model is still usable: the dual objective never
// decreases, so the last iterate is the best one found.
func (t *Trainer) Fit(X dataset.Matrix, y dataset.Labels) (*Model, error) {
	n := X.Rows()
	if n == 0 {
		return nil, common.NewDimensionError("training rows", y.Len(), 0)
	}
	if y.Len() != n {
		return nil, common.NewDimensionError("labels vs training rows", n, y.Len())
	}

	start := time.Now()
	cache, err := kernel.NewRowCache(t.kernel, X, t.cfg.CacheSize, t.metrics)
	if err != nil {
		return nil, err
	}

	labels := y.Values()
	alpha := make([]float64, n)
	grad := make([]float64, n) // 1 - (H a)_i
	for i := range grad {
		grad[i] = 1
	}

	C := t.cfg.C
	var (
		iter      int
		converged bool
		stalled   bool
		violation float64
		idx       int
	)
	for {
		idx, violation = maxViolation(alpha, grad, C)
		if violation < t.cfg.Epsilon {
			converged = true
			break
		}
		if iter >= t.cfg.MaxIterations {
			break
		}

		hii := cache.Diag(idx) + 1
		old := alpha[idx]
		updated := math.Min(math.Max(old+grad[idx]/hii, 0), C)
		delta := updated - old
		if delta == 0 {
			stalled = true
			break
		}
		alpha[idx] = updated

		row := cache.Row(idx)
		yd := delta * labels[idx]
		for j := range grad {
			grad[j] -= yd * labels[j] * (row[j] + 1)
		}
		iter++

		if iter%1000 == 0 {
			log.Debug().
				Int("iteration", iter).
				Float64("violation", violation).
				Msg("SVM optimizer progress")
		}
	}

	model := newModel(X, labels, alpha, t.kernel, t.metrics)
	model.report = Report{
		Iterations:     iter,
		Converged:      converged,
		Stalled:        stalled,
		Violation:      violation,
		Objective:      dualObjective(alpha, grad),
		SupportVectors: len(model.coef),
		Duration:       time.Since(start),
	}

	if t.metrics != nil {
		t.metrics.SVMTrainingsInc()
		t.metrics.SVMIterationsObserve(float64(iter))
		t.metrics.SVMTrainingDurationObserve(model.report.Duration.Seconds())
	}

	log.Info().
		Str("kernel", t.kernel.Name()).
		Int("samples", n).
		Int("support_vectors", model.report.SupportVectors).
		Int("iterations", iter).
		Float64("violation", violation).
		Float64("objective", model.report.Objective).
		Dur("duration", model.report.Duration).
		Msg("SVM training finished")

	if !converged {
		if t.metrics != nil {
			t.metrics.SVMConvergenceWarningsInc()
		}
		event := log.Warn().
			Int("iterations", iter).
			Float64("violation", violation).
			Float64("epsilon", t.cfg.Epsilon)
		if stalled {
			event.Msg("SVM optimizer stalled before reaching epsilon, returning best model found")
		} else {
			event.Int("max_iterations", t.cfg.MaxIterations).
				Msg("SVM optimizer exhausted its iteration budget, returning best model found")
		}
		return model, &common.ConvergenceWarning{
			Iterations: iter,
			Violation:  violation,
			Epsilon:    t.cfg.Epsilon,
			Stalled:    stalled,
		}
	}

	return model, nil
}

// maxViolation returns the coordinate whose projected gradient is largest in magnitude.
// Ties resolve to the lowest index.
func maxViolation(alpha, grad []float64, C float64) (int, float64) {
	best, bestV := 0, -1.0
	for i, g := range grad {
		var v float64
		switch {
		case alpha[i] <= 0:
			v = math.Max(g, 0)
		case alpha[i] >= C:
			v = math.Max(-g, 0)
		default:
			v = math.Abs(g)
		}
		if v > bestV {
			best, bestV = i, v
		}
	}
	return best, bestV
}

// dualObjective uses a'Ha = a'(1 - grad).
func dualObjective(alpha, grad []float64) float64 {
	var obj float64
	for i, a := range alpha {
		obj += a * (1 + grad[i])
	}
	return obj / 2
}
