package svm

import (
	"context"
	"fmt"
	"time"

	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml"
	"kernelpipe/internal/ml/kernel"

	"golang.org/x/sync/errgroup"
)

var _ ml.Classifier = (*Model)(nil)

// Report summarises a training run.
type Report struct {
	Iterations     int           `json:"iterations"`
	Converged      bool          `json:"converged"`
	Stalled        bool          `json:"stalled"`
	Violation      float64       `json:"violation"`
	Objective      float64       `json:"objective"`
	SupportVectors int           `json:"support_vectors"`
	Duration       time.Duration `json:"duration"`
}

// Model is a trained classifier. It is immutable and safe for concurrent use.
type Model struct {
	kernel  kernel.Kernel
	svs     [][]float64 // support vectors
	index   []int       // training row of each support vector
	coef    []float64   // alpha_i * y_i
	bias    float64
	cols    int
	report  Report
	metrics MetricsInterface
}

func newModel(X dataset.Matrix, labels, alpha []float64, k kernel.Kernel, metrics MetricsInterface) *Model {
	m := &Model{kernel: k, cols: X.Cols(), metrics: metrics}
	for i, a := range alpha {
		if a <= 0 {
			continue
		}
		c := a * labels[i]
		m.svs = append(m.svs, append([]float64(nil), X.Row(i)...))
		m.index = append(m.index, i)
		m.coef = append(m.coef, c)
		m.bias += c
	}
	return m
}

// DecisionValue returns sum_i coef_i K(sv_i, x) + bias.
func (m *Model) DecisionValue(x []float64) (float64, error) {
	if len(x) != m.cols {
		return 0, common.NewDimensionError("feature columns", m.cols, len(x))
	}
	return m.decision(x), nil
}

func (m *Model) decision(x []float64) float64 {
	f := m.bias
	for i, sv := range m.svs {
		f += m.coef[i] * m.kernel.Evaluate(sv, x)
	}
	return f
}

// Decision returns the decision value for every row of X.
func (m *Model) Decision(X dataset.Matrix) ([]float64, error) {
	if err := m.checkCols(X); err != nil {
		return nil, err
	}
	out := make([]float64, X.Rows())
	for i := range out {
		out[i] = m.decision(X.Row(i))
	}
	return out, nil
}

// Apply predicts a label per row of X. A decision value of exactly zero maps to +1.
func (m *Model) Apply(X dataset.Matrix) (dataset.Labels, error) {
	start := time.Now()
	values, err := m.Decision(X)
	if err != nil {
		return dataset.Labels{}, err
	}
	m.observe(len(values), start)
	return LabelsFromDecision(values)
}

// ApplyBatch is Apply with rows split across at most workers goroutines.
// The result is identical to Apply.
func (m *Model) ApplyBatch(ctx context.Context, X dataset.Matrix, workers int) (dataset.Labels, error) {
	values, err := m.DecisionBatch(ctx, X, workers)
	if err != nil {
		return dataset.Labels{}, err
	}
	return LabelsFromDecision(values)
}

// DecisionBatch is Decision with rows split across at most workers goroutines.
// Each call counts as one prediction batch in the metrics.
func (m *Model) DecisionBatch(ctx context.Context, X dataset.Matrix, workers int) ([]float64, error) {
	if workers <= 0 {
		return nil, common.NewParameterError("workers", workers, "must be > 0")
	}
	if err := m.checkCols(X); err != nil {
		return nil, err
	}

	start := time.Now()
	n := X.Rows()
	values := make([]float64, n)
	chunk := max((n+workers-1)/workers, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				values[i] = m.decision(X.Row(i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch prediction: %w", err)
	}

	m.observe(n, start)
	return values, nil
}

func (m *Model) observe(n int, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.SVMPredictionsAdd(float64(n))
	m.metrics.SVMPredictionLatencyObserve(time.Since(start).Seconds())
}

func (m *Model) checkCols(X dataset.Matrix) error {
	if X.Cols() != m.cols {
		return common.NewDimensionError("feature columns", m.cols, X.Cols())
	}
	return nil
}

// LabelsFromDecision maps decision values to labels by sign; zero maps to +1.
func LabelsFromDecision(values []float64) (dataset.Labels, error) {
	labels := make([]float64, len(values))
	for i, v := range values {
		if v >= 0 {
			labels[i] = 1
		} else {
			labels[i] = -1
		}
	}
	return dataset.NewLabels(labels)
}

// Report returns the training summary.
func (m *Model) Report() Report { return m.report }

// Bias returns the bias term, sum_i alpha_i y_i.
func (m *Model) Bias() float64 { return m.bias }

// Kernel returns the kernel the model was trained with.
func (m *Model) Kernel() kernel.Kernel { return m.kernel }

// SupportVectorIndices returns the training rows that became support vectors.
func (m *Model) SupportVectorIndices() []int {
	return append([]int(nil), m.index...)
}

// Coefficients returns alpha_i * y_i for each support vector.
func (m *Model) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}
