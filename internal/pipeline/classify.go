package pipeline

import (
	"context"

	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml/kernel"
	"kernelpipe/internal/ml/svm"

	"github.com/rs/zerolog/log"
)

// ClassificationResult is the outcome of Classify.
type ClassificationResult struct {
	Labels        dataset.Labels // predicted labels of the test set, in row order
	Decision      []float64      // decision values of the test set
	Report        svm.Report
	TrainingError float64 // fraction of training samples the model misclassifies

	// Warning is a *common.ConvergenceWarning when the optimizer stopped before
	// converging; the other fields are still valid.
	Warning error
}

// Classify trains a Gaussian-kernel SVM on the training file and labels, then
// classifies the test file.
func (r *Runner) Classify(ctx context.Context) (ClassificationResult, error) {
	var (
		train, test dataset.Matrix
		labels      dataset.Labels
		model       *svm.Model
		result      ClassificationResult
	)

	err := r.run(ctx, StageLoad, func() error {
		var err error
		if train, err = r.loadMatrix(r.settings.TrainPath); err != nil {
			return err
		}
		if test, err = r.loadMatrix(r.settings.TestPath); err != nil {
			return err
		}
		labels, err = dataset.LoadLabels(r.settings.LabelPath)
		return err
	})
	if err != nil {
		return ClassificationResult{}, err
	}

	err = r.run(ctx, StageTrain, func() error {
		k, err := kernel.NewGaussian(r.settings.KernelConfig())
		if err != nil {
			return err
		}
		trainer, err := svm.NewTrainer(r.settings.TrainerConfig(), k, r.svmMetrics())
		if err != nil {
			return err
		}
		model, err = trainer.Fit(train, labels)
		return err
	})
	if err != nil {
		if model == nil {
			return ClassificationResult{}, err
		}
		result.Warning = err
	}
	result.Report = model.Report()

	err = r.run(ctx, StageEvaluate, func() error {
		predicted, err := model.ApplyBatch(ctx, train, r.settings.Workers)
		if err != nil {
			return err
		}
		result.TrainingError, err = labels.ErrorRate(predicted)
		return err
	})
	if err != nil {
		return ClassificationResult{}, err
	}

	err = r.run(ctx, StagePredict, func() error {
		var err error
		if result.Decision, err = model.DecisionBatch(ctx, test, r.settings.Workers); err != nil {
			return err
		}
		result.Labels, err = svm.LabelsFromDecision(result.Decision)
		return err
	})
	if err != nil {
		return ClassificationResult{}, err
	}

	log.Info().
		Int("train_samples", train.Rows()).
		Int("test_samples", test.Rows()).
		Int("support_vectors", result.Report.SupportVectors).
		Float64("training_error", result.TrainingError).
		Bool("converged", result.Report.Converged).
		Msg("Classification finished")

	return result, nil
}
