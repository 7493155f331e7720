package embed

import (
	"fmt"
	"sort"

	"kernelpipe/internal/dataset"
	"kernelpipe/internal/ml/kernel"

	"gonum.org/v1/gonum/mat"
)

// nearest returns the indices of the k rows of data closest to x in Euclidean
// distance, nearest first. Row skip is excluded (pass -1 to keep every row).
// Ties resolve to the lower index so results are deterministic.
func nearest(data dataset.Matrix, x []float64, k, skip int) []int {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, data.Rows())
	for i := 0; i < data.Rows(); i++ {
		if i == skip {
			continue
		}
		cands = append(cands, cand{i, kernel.SquaredL2(x, data.Row(i))})
	}
	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].dist < cands[b].dist
	})

	k = min(k, len(cands))
	out := make([]int, k)
	for i := range out {
		out[i] = cands[i].idx
	}
	return out
}

// reconstructionWeights solves for weights w, summing to 1, that best reconstruct x
// from the given neighbours. The local Gram matrix is regularised by
// reg * trace so the system stays solvable when k exceeds the input dimension.
func reconstructionWeights(data dataset.Matrix, x []float64, nbrs []int, reg float64) ([]float64, error) {
	k := len(nbrs)
	diffs := make([][]float64, k)
	for a, idx := range nbrs {
		row := data.Row(idx)
		d := make([]float64, len(x))
		for j := range d {
			d[j] = row[j] - x[j]
		}
		diffs[a] = d
	}

	gram := mat.NewSymDense(k, nil)
	var trace float64
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			gram.SetSym(a, b, kernel.Dot(diffs[a], diffs[b]))
		}
		trace += gram.At(a, a)
	}
	r := reg
	if trace > 0 {
		r = reg * trace
	}
	for a := 0; a < k; a++ {
		gram.SetSym(a, a, gram.At(a, a)+r)
	}

	ones := mat.NewVecDense(k, nil)
	for a := 0; a < k; a++ {
		ones.SetVec(a, 1)
	}

	var w mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(gram) {
		if err := chol.SolveVecTo(&w, ones); err != nil {
			return nil, fmt.Errorf("solve local weights: %w", err)
		}
	} else if err := w.SolveVec(gram, ones); err != nil {
		return nil, fmt.Errorf("solve local weights: %w", err)
	}

	weights := make([]float64, k)
	var sum float64
	for a := range weights {
		weights[a] = w.AtVec(a)
		sum += weights[a]
	}
	if sum == 0 {
		for a := range weights {
			weights[a] = 1 / float64(k)
		}
		return weights, nil
	}
	for a := range weights {
		weights[a] /= sum
	}
	return weights, nil
}
