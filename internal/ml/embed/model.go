package embed

import (
	"fmt"

	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml"
)

var _ ml.Transformer = (*Model)(nil)

// Model is a fitted embedding. It is immutable and safe for concurrent use.
type Model struct {
	cfg         Config
	train       dataset.Matrix
	embedding   dataset.Matrix
	eigenvalues []float64
	metrics     MetricsInterface
}

func (m *Model) TargetDim() int { return m.cfg.TargetDim }

func (m *Model) InputDim() int { return m.train.Cols() }

// Embedding returns the coordinates of the training rows.
func (m *Model) Embedding() dataset.Matrix { return m.embedding }

// Eigenvalues returns the cost eigenvalues of the kept embedding directions.
func (m *Model) Eigenvalues() []float64 {
	return append([]float64(nil), m.eigenvalues...)
}

// Transform projects each row of X into TargetDim columns. Every row is
// reconstructed from its nearest training rows, and the same weights are applied
// to their embedding coordinates.
func (m *Model) Transform(X dataset.Matrix) (dataset.Matrix, error) {
	if X.Cols() != m.train.Cols() {
		return dataset.Matrix{}, common.NewDimensionError("feature columns", m.train.Cols(), X.Cols())
	}

	k := m.cfg.TargetDim
	rows := make([][]float64, X.Rows())
	for i := range rows {
		x := X.Row(i)
		nbrs := nearest(m.train, x, m.cfg.Neighbors, -1)
		w, err := reconstructionWeights(m.train, x, nbrs, m.cfg.Regularization)
		if err != nil {
			return dataset.Matrix{}, fmt.Errorf("row %d: %w", i, err)
		}
		out := make([]float64, k)
		for a, j := range nbrs {
			y := m.embedding.Row(j)
			for c := range out {
				out[c] += w[a] * y[c]
			}
		}
		rows[i] = out
	}

	result, err := dataset.NewMatrix(rows)
	if err != nil {
		return dataset.Matrix{}, fmt.Errorf("build projection: %w", err)
	}
	if m.metrics != nil {
		m.metrics.EmbeddingTransformsAdd(float64(X.Rows()))
	}
	return result, nil
}
