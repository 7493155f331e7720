// Package pipeline runs the two end-to-end workflows of the module: training a kernel
// classifier and applying it to a test set, and reducing a feature matrix with a
// locally linear embedding. Both read their inputs from delimited text files named in
// cfg.Settings and return structured results.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"kernelpipe/internal/cfg"
	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"
	"kernelpipe/internal/metrics"
	"kernelpipe/internal/ml/embed"
	"kernelpipe/internal/ml/svm"

	"github.com/rs/zerolog/log"
)

// Stage names used for logging and metrics labels.
const (
	StageLoad     = "load"
	StageTrain    = "train"
	StagePredict  = "predict"
	StageEmbed    = "embed"
	StageEvaluate = "evaluate"
)

// Runner executes workflows with a fixed set of settings. It holds no mutable state
// and may be used from several goroutines.
type Runner struct {
	settings cfg.Settings
	recorder *metrics.Recorder
}

// New returns a Runner. recorder may be nil.
func New(settings cfg.Settings, recorder *metrics.Recorder) *Runner {
	return &Runner{settings: settings, recorder: recorder}
}

func (r *Runner) Settings() cfg.Settings { return r.settings }

func (r *Runner) loadOptions() []dataset.Option {
	if r.settings.SamplesAsColumns {
		return []dataset.Option{dataset.WithSamplesAsColumns()}
	}
	return nil
}

func (r *Runner) svmMetrics() svm.MetricsInterface {
	if r.recorder == nil {
		return nil
	}
	return r.recorder
}

func (r *Runner) embedMetrics() embed.MetricsInterface {
	if r.recorder == nil {
		return nil
	}
	return r.recorder
}

// run executes one stage after checking ctx, recording its duration. Errors other
// than warnings are counted and wrapped with the stage name.
func (r *Runner) run(ctx context.Context, stage string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	r.recorder.ObserveStage(stage, start)

	if err != nil && !common.IsWarning(err) {
		r.recorder.StageErrorInc(stage)
		log.Error().Err(err).Str("stage", stage).Msg("Pipeline stage failed")
		return fmt.Errorf("%s: %w", stage, err)
	}
	return err
}

func (r *Runner) loadMatrix(path string) (dataset.Matrix, error) {
	m, err := dataset.LoadMatrix(path, r.loadOptions()...)
	if err != nil {
		return dataset.Matrix{}, err
	}
	log.Info().
		Str("path", path).
		Int("rows", m.Rows()).
		Int("cols", m.Cols()).
		Msg("Feature matrix loaded")
	return m, nil
}
