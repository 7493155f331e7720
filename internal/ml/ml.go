// Package ml defines the contracts shared by the fitted models of this module.
// The kernel SVM lives in package svm and the locally linear embedding in package
// embed. Both produce immutable models that satisfy the interfaces below and can
// serve concurrent read-only inference.
package ml

import "kernelpipe/internal/dataset"

// Classifier is a fitted binary classifier.
type Classifier interface {
	// Apply predicts one label in {-1, +1} per row of X.
	Apply(X dataset.Matrix) (dataset.Labels, error)

	// Decision returns the raw decision value per row of X; its sign is the label.
	Decision(X dataset.Matrix) ([]float64, error)
}

// Transformer is a fitted dimensionality reduction.
type Transformer interface {
	// Transform projects every row of X into TargetDim columns.
	Transform(X dataset.Matrix) (dataset.Matrix, error)

	// TargetDim is the output width chosen at fit time.
	TargetDim() int
}
