package pipeline

import (
	"context"

	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml/embed"

	"github.com/rs/zerolog/log"
)

// EmbeddingResult is the outcome of Reduce.
type EmbeddingResult struct {
	Embedding   dataset.Matrix // one row per input sample, TargetDim columns
	Eigenvalues []float64      // eigenvalues of the retained coordinates, ascending
	InputDim    int
	TargetDim   int
}

// Reduce fits a locally linear embedding to the embed file and returns the projected
// samples.
func (r *Runner) Reduce(ctx context.Context) (EmbeddingResult, error) {
	var X dataset.Matrix

	err := r.run(ctx, StageLoad, func() error {
		var err error
		X, err = r.loadMatrix(r.settings.EmbedPath)
		return err
	})
	if err != nil {
		return EmbeddingResult{}, err
	}

	var result EmbeddingResult
	err = r.run(ctx, StageEmbed, func() error {
		embedder, err := embed.NewEmbedder(r.settings.EmbedConfig(), r.embedMetrics())
		if err != nil {
			return err
		}
		embedding, model, err := embedder.FitTransform(X)
		if err != nil {
			return err
		}
		result = EmbeddingResult{
			Embedding:   embedding,
			Eigenvalues: model.Eigenvalues(),
			InputDim:    model.InputDim(),
			TargetDim:   model.TargetDim(),
		}
		return nil
	})
	if err != nil {
		return EmbeddingResult{}, err
	}

	log.Info().
		Int("samples", X.Rows()).
		Int("input_dim", result.InputDim).
		Int("target_dim", result.TargetDim).
		Msg("Dimension reduction finished")

	return result, nil
}
