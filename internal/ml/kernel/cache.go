package kernel

import (
	"fmt"

	"kernelpipe/internal/dataset"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheMetrics receives kernel cache hit/miss counts. A nil CacheMetrics is allowed.
type CacheMetrics interface {
	KernelCacheHitsInc()
	KernelCacheMissesInc()
}

// RowCache serves rows of the kernel matrix K(x_i, x_j) over a fixed training set.
// Rows are computed on demand and the most recently used ones are retained.
// The diagonal is always precomputed. A RowCache is not safe for concurrent use.
type RowCache struct {
	kernel  Kernel
	data    dataset.Matrix
	diag    []float64
	rows    *lru.Cache[int, []float64]
	metrics CacheMetrics
}

// NewRowCache creates a cache holding at most size rows. A size of zero disables
// caching so every row is recomputed.
func NewRowCache(k Kernel, data dataset.Matrix, size int, metrics CacheMetrics) (*RowCache, error) {
	c := &RowCache{
		kernel:  k,
		data:    data,
		diag:    make([]float64, data.Rows()),
		metrics: metrics,
	}
	if size > 0 {
		rows, err := lru.New[int, []float64](size)
		if err != nil {
			return nil, fmt.Errorf("create kernel row cache: %w", err)
		}
		c.rows = rows
	}
	for i := range c.diag {
		x := data.Row(i)
		c.diag[i] = k.Evaluate(x, x)
	}
	return c, nil
}

// Diag returns K(x_i, x_i).
func (c *RowCache) Diag(i int) float64 { return c.diag[i] }

// Row returns K(x_i, x_j) for every training sample j. The slice is owned by the
// cache and must not be modified.
func (c *RowCache) Row(i int) []float64 {
	if c.rows != nil {
		if row, ok := c.rows.Get(i); ok {
			if c.metrics != nil {
				c.metrics.KernelCacheHitsInc()
			}
			return row
		}
	}
	if c.metrics != nil {
		c.metrics.KernelCacheMissesInc()
	}

	xi := c.data.Row(i)
	row := make([]float64, c.data.Rows())
	for j := range row {
		row[j] = c.kernel.Evaluate(xi, c.data.Row(j))
	}
	if c.rows != nil {
		c.rows.Add(i, row)
	}
	return row
}

// Len reports how many rows are currently cached.
func (c *RowCache) Len() int {
	if c.rows == nil {
		return 0
	}
	return c.rows.Len()
}
