// Package embed implements Locally Linear Embedding as a dimension reduction
// preprocessor. A fitted Model keeps the training points and their embedding so
// new rows can be projected by reconstructing them from their training neighbours.
package embed

import (
	"fmt"
	"math"
	"sort"
	"time"

	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// MetricsInterface defines metrics methods needed by the embedder and its models.
// A nil MetricsInterface disables metrics.
type MetricsInterface interface {
	EmbeddingFitsInc()
	EmbeddingFitDurationObserve(float64)
	EmbeddingTransformsAdd(float64)
}

// Config holds the embedding parameters.
type Config struct {
	TargetDim      int     // output width k, 0 < k < input columns
	Neighbors      int     // neighbourhood size, 0 < n < rows
	Regularization float64 // local Gram conditioning, > 0
}

func DefaultConfig() Config {
	return Config{
		TargetDim:      common.DefaultEmbedDim,
		Neighbors:      common.DefaultEmbedNeighbors,
		Regularization: common.DefaultEmbedRegularization,
	}
}

func (c Config) validate() error {
	if c.TargetDim <= 0 {
		return common.NewParameterError("target dimension", c.TargetDim, "must be > 0")
	}
	if c.Neighbors <= 0 {
		return common.NewParameterError("neighbors", c.Neighbors, "must be > 0")
	}
	if !(c.Regularization > 0) || math.IsInf(c.Regularization, 0) {
		return common.NewParameterError("regularization", c.Regularization, "must be a finite value > 0")
	}
	return nil
}

// validateFor checks the parameters that depend on the shape of the training data.
func (c Config) validateFor(X dataset.Matrix) error {
	if c.TargetDim >= X.Cols() {
		return common.NewParameterError("target dimension", c.TargetDim,
			fmt.Sprintf("must be < input dimensionality %d", X.Cols()))
	}
	if c.Neighbors >= X.Rows() {
		return common.NewParameterError("neighbors", c.Neighbors,
			fmt.Sprintf("must be < sample count %d", X.Rows()))
	}
	if c.TargetDim >= X.Rows() {
		return common.NewParameterError("target dimension", c.TargetDim,
			fmt.Sprintf("must be < sample count %d", X.Rows()))
	}
	return nil
}

// Embedder fits Models.
type Embedder struct {
	cfg     Config
	metrics MetricsInterface
}

func NewEmbedder(cfg Config, metrics MetricsInterface) (*Embedder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Embedder{cfg: cfg, metrics: metrics}, nil
}

func (e *Embedder) Config() Config { return e.cfg }

// Fit computes the embedding of X.
func (e *Embedder) Fit(X dataset.Matrix) (*Model, error) {
	if X.Rows() == 0 {
		return nil, common.NewDimensionError("training rows", 1, 0)
	}
	if err := e.cfg.validateFor(X); err != nil {
		return nil, err
	}

	start := time.Now()
	n := X.Rows()

	// I - W, row by row.
	iw := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		x := X.Row(i)
		nbrs := nearest(X, x, e.cfg.Neighbors, i)
		w, err := reconstructionWeights(X, x, nbrs, e.cfg.Regularization)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		iw.Set(i, i, 1)
		for a, j := range nbrs {
			iw.Set(i, j, iw.At(i, j)-w[a])
		}
	}

	var prod mat.Dense
	prod.Mul(iw.T(), iw)
	cost := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cost.SetSym(i, j, (prod.At(i, j)+prod.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cost, true) {
		return nil, fmt.Errorf("eigendecomposition of %dx%d cost matrix failed", n, n)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	// Skip the bottom eigenvector: it is the constant vector with eigenvalue 0.
	k := e.cfg.TargetDim
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, k)
		for c := 0; c < k; c++ {
			rows[i][c] = vectors.At(i, order[c+1])
		}
	}
	embedding, err := dataset.NewMatrix(rows)
	if err != nil {
		return nil, fmt.Errorf("build embedding: %w", err)
	}

	eigenvalues := make([]float64, k)
	for c := range eigenvalues {
		eigenvalues[c] = values[order[c+1]]
	}

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.EmbeddingFitsInc()
		e.metrics.EmbeddingFitDurationObserve(elapsed.Seconds())
	}

	log.Info().
		Int("samples", n).
		Int("input_dim", X.Cols()).
		Int("target_dim", k).
		Int("neighbors", e.cfg.Neighbors).
		Floats64("eigenvalues", eigenvalues).
		Dur("duration", elapsed).
		Msg("Locally linear embedding fitted")

	return &Model{
		cfg:         e.cfg,
		train:       X,
		embedding:   embedding,
		eigenvalues: eigenvalues,
		metrics:     e.metrics,
	}, nil
}

// FitTransform fits X and returns its embedding.
func (e *Embedder) FitTransform(X dataset.Matrix) (dataset.Matrix, *Model, error) {
	model, err := e.Fit(X)
	if err != nil {
		return dataset.Matrix{}, nil, err
	}
	return model.Embedding(), model, nil
}
