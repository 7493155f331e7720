package svm

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"kernelpipe/internal/common"
	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T, metrics MetricsInterface) *Model {
	t.Helper()
	X, y := clusters(t)
	trainer, err := NewTrainer(DefaultTrainerConfig(), gaussian(t), metrics)
	require.NoError(t, err)
	model, err := trainer.Fit(X, y)
	require.NoError(t, err)
	return model
}

func randomMatrix(t *testing.T, rows, cols int, seed int64) dataset.Matrix {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
		for j := range data[i] {
			data[i][j] = rng.Float64()*5 - 1
		}
	}
	m, err := dataset.NewMatrix(data)
	require.NoError(t, err)
	return m
}

func TestModel_ApplyRowCount(t *testing.T) {
	model := trainedModel(t, nil)

	for _, rows := range []int{1, 7, 50} {
		X := randomMatrix(t, rows, 2, int64(rows))
		pred, err := model.Apply(X)
		require.NoError(t, err)
		assert.Equal(t, rows, pred.Len())
	}
}

func TestModel_Deterministic(t *testing.T) {
	model := trainedModel(t, nil)
	X := randomMatrix(t, 20, 2, 3)

	a, err := model.Decision(X)
	require.NoError(t, err)
	b, err := model.Decision(X)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestModel_ColumnMismatch(t *testing.T) {
	model := trainedModel(t, nil)
	X := randomMatrix(t, 3, 4, 1)

	_, err := model.Apply(X)
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)

	_, err = model.ApplyBatch(context.Background(), X, 2)
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)

	_, err = model.DecisionValue([]float64{1})
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestModel_DecisionValueMatchesDecision(t *testing.T) {
	model := trainedModel(t, nil)
	X := randomMatrix(t, 5, 2, 9)

	values, err := model.Decision(X)
	require.NoError(t, err)
	for i := 0; i < X.Rows(); i++ {
		v, err := model.DecisionValue(X.Row(i))
		require.NoError(t, err)
		assert.Equal(t, values[i], v)
	}
}

func TestModel_ApplyBatchMatchesApply(t *testing.T) {
	metrics := &MockMetrics{}
	model := trainedModel(t, metrics)
	X := randomMatrix(t, 101, 2, 42)

	want, err := model.Apply(X)
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 8, 200} {
		got, err := model.ApplyBatch(context.Background(), X, workers)
		require.NoError(t, err)
		assert.Equal(t, want.Values(), got.Values(), "workers=%d", workers)
	}
	assert.Equal(t, float64(5*101), metrics.predictions)

	_, err = model.ApplyBatch(context.Background(), X, 0)
	assert.ErrorIs(t, err, common.ErrInvalidParameter)
}

// countingKernel counts Evaluate calls on the wrapped kernel.
type countingKernel struct {
	kernel.Kernel
	calls atomic.Int64
}

func (k *countingKernel) Evaluate(a, b []float64) float64 {
	k.calls.Add(1)
	return k.Kernel.Evaluate(a, b)
}

func TestModel_DecisionBatchMatchesDecision(t *testing.T) {
	metrics := &MockMetrics{}
	model := trainedModel(t, metrics)
	X := randomMatrix(t, 37, 2, 8)

	want, err := model.Decision(X)
	require.NoError(t, err)

	for _, workers := range []int{1, 4, 64} {
		got, err := model.DecisionBatch(context.Background(), X, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
	assert.Equal(t, float64(3*37), metrics.predictions)

	_, err = model.DecisionBatch(context.Background(), X, 0)
	assert.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestModel_DecisionBatchEvaluatesEachRowOnce(t *testing.T) {
	X, y := clusters(t)
	k := &countingKernel{Kernel: gaussian(t)}
	trainer, err := NewTrainer(DefaultTrainerConfig(), k, nil)
	require.NoError(t, err)
	model, err := trainer.Fit(X, y)
	require.NoError(t, err)

	test := randomMatrix(t, 9, 2, 4)
	k.calls.Store(0)

	values, err := model.DecisionBatch(context.Background(), test, 3)
	require.NoError(t, err)
	labels, err := LabelsFromDecision(values)
	require.NoError(t, err)

	assert.Equal(t, int64(test.Rows()*len(model.Coefficients())), k.calls.Load())
	want, err := model.Apply(test)
	require.NoError(t, err)
	assert.Equal(t, want.Values(), labels.Values())
}

func TestLabelsFromDecision(t *testing.T) {
	labels, err := LabelsFromDecision([]float64{-0.5, 0, 2, -1e-300})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 1, -1}, labels.Values())
}

func TestModel_ApplyBatchCancelled(t *testing.T) {
	model := trainedModel(t, nil)
	X := randomMatrix(t, 10, 2, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := model.ApplyBatch(ctx, X, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModel_ConcurrentApply(t *testing.T) {
	model := trainedModel(t, &MockMetrics{})
	X := randomMatrix(t, 30, 2, 11)
	want, err := model.Apply(X)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := model.Apply(X)
			if err != nil {
				errs <- err
				return
			}
			if got.Len() != want.Len() {
				errs <- common.NewDimensionError("predictions", want.Len(), got.Len())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestModel_SeparatesClusters(t *testing.T) {
	model := trainedModel(t, nil)
	X, err := dataset.NewMatrix([][]float64{{0.1, -0.1}, {2.9, 3.1}})
	require.NoError(t, err)

	pred, err := model.Apply(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1}, pred.Values())
}
