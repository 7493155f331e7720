// Package kernel provides similarity functions over feature vectors and a bounded
// cache of kernel rows used by the SVM trainer.
package kernel

import (
	"math"

	"kernelpipe/internal/common"
)

// Kernel computes a symmetric, deterministic similarity between two equal-length vectors.
type Kernel interface {
	Evaluate(a, b []float64) float64
	Name() string
}

// Config holds the kernel parameters.
type Config struct {
	Width float64 `yaml:"width"`
}

// Gaussian is the RBF kernel exp(-||a-b||^2 / width).
type Gaussian struct {
	width float64
}

// NewGaussian validates cfg and returns a Gaussian kernel.
func NewGaussian(cfg Config) (*Gaussian, error) {
	if !(cfg.Width > 0) || math.IsInf(cfg.Width, 0) {
		return nil, common.NewParameterError("kernel width", cfg.Width, "must be a finite value > 0")
	}
	return &Gaussian{width: cfg.Width}, nil
}

func (g *Gaussian) Evaluate(a, b []float64) float64 {
	return math.Exp(-SquaredL2(a, b) / g.width)
}

func (g *Gaussian) Width() float64 { return g.width }

func (g *Gaussian) Name() string { return "gaussian" }

// Linear is the plain dot-product kernel.
type Linear struct{}

func NewLinear() Linear { return Linear{} }

func (Linear) Evaluate(a, b []float64) float64 { return Dot(a, b) }

func (Linear) Name() string { return "linear" }

// Dot assumes len(a) == len(b).
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 assumes len(a) == len(b).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
