// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse provides the compressed sparse row matrix and the
// conjugate-gradient solve used by the sparse Newton strategy.
package sparse

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNotConverged the residual did not reach the tolerance within the iteration cap.
	ErrNotConverged = errors.New("sparse: cg not converged")
	// ErrIndefinite a direction with pᵀAp ≤ 0 was met, the matrix is not positive definite.
	ErrIndefinite = errors.New("sparse: matrix not positive definite")
)

// DOK accumulates matrix entries keyed by (row, col).
// Duplicate entries are summed, which suits element-wise Hessian assembly.
type DOK struct {
	n    int
	data map[[2]int]float64
}

// NewDOK creates an empty n×n accumulator.
func NewDOK(n int) *DOK {
	return &DOK{n: n, data: make(map[[2]int]float64)}
}

// N returns the matrix dimension.
func (m *DOK) N() int { return m.n }

// Add accumulates v into entry (i, j).
func (m *DOK) Add(i, j int, v float64) {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic("sparse: index out of range")
	}
	if v != 0 {
		m.data[[2]int{i, j}] += v
	}
}

// Reset drops all accumulated entries but keeps the dimension.
func (m *DOK) Reset() {
	clear(m.data)
}

// CSR converts the accumulated entries to compressed sparse row form.
func (m *DOK) CSR() *CSR {
	nnz := len(m.data)
	keys := make([][2]int, 0, nnz)
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		ka, kb := keys[a], keys[b]
		if ka[0] != kb[0] {
			return ka[0] < kb[0]
		}
		return ka[1] < kb[1]
	})

	c := &CSR{
		n:      m.n,
		rowPtr: make([]int, m.n+1),
		colIdx: make([]int, nnz),
		data:   make([]float64, nnz),
	}
	for p, k := range keys {
		c.rowPtr[k[0]+1]++
		c.colIdx[p] = k[1]
		c.data[p] = m.data[k]
	}
	for i := 0; i < m.n; i++ {
		c.rowPtr[i+1] += c.rowPtr[i]
	}
	return c
}

// CSR is a square sparse matrix in compressed sparse row form.
type CSR struct {
	n      int
	rowPtr []int
	colIdx []int
	data   []float64
}

// N returns the matrix dimension.
func (c *CSR) N() int { return c.n }

// NNZ returns the number of stored entries.
func (c *CSR) NNZ() int { return len(c.data) }

// MulVec computes dst = A·x + shift·x.
func (c *CSR) MulVec(dst, x []float64, shift float64) {
	if len(dst) != c.n || len(x) != c.n {
		panic("sparse: dimension mismatch")
	}
	for i := 0; i < c.n; i++ {
		sum := shift * x[i]
		for p := c.rowPtr[i]; p < c.rowPtr[i+1]; p++ {
			sum += c.data[p] * x[c.colIdx[p]]
		}
		dst[i] = sum
	}
}

// Diagonal writes the main diagonal into dst, zero where no entry is stored.
func (c *CSR) Diagonal(dst []float64) {
	if len(dst) != c.n {
		panic("sparse: dimension mismatch")
	}
	for i := 0; i < c.n; i++ {
		dst[i] = 0
		for p := c.rowPtr[i]; p < c.rowPtr[i+1]; p++ {
			if c.colIdx[p] == i {
				dst[i] = c.data[p]
				break
			}
		}
	}
}

// InfNorm returns ‖A‖∞, the maximum absolute row sum.
func (c *CSR) InfNorm() float64 {
	norm := 0.0
	for i := 0; i < c.n; i++ {
		sum := 0.0
		for p := c.rowPtr[i]; p < c.rowPtr[i+1]; p++ {
			sum += math.Abs(c.data[p])
		}
		norm = math.Max(norm, sum)
	}
	return norm
}

// CGWork holds the vectors for a conjugate-gradient solve so that
// repeated solves of the same dimension allocate nothing.
type CGWork struct {
	r, z, p, ap, diag []float64
}

// NewCGWork allocates work vectors for dimension n.
func NewCGWork(n int) *CGWork {
	return &CGWork{
		r:    make([]float64, n),
		z:    make([]float64, n),
		p:    make([]float64, n),
		ap:   make([]float64, n),
		diag: make([]float64, n),
	}
}

// SolveCG solves (A + shift·I)·x = b by preconditioned conjugate gradients
// with a Jacobi preconditioner. x carries the initial guess on entry and the
// solution on return.
//
// The recurrence per iteration:
//
//	z = M⁻¹r
//	ρ = r·z, β = ρ/ρ₋₁, p = z + βp
//	α = ρ/(p·Ap)
//	x += αp, r -= αAp
//
// ErrIndefinite reports p·Ap ≤ 0 and ErrNotConverged an exhausted
// iteration cap, both leaving the best iterate in x.
func (c *CSR) SolveCG(x, b []float64, shift, tol float64, maxIter int, w *CGWork) error {
	n := c.n
	if len(x) != n || len(b) != n {
		panic("sparse: dimension mismatch")
	}
	if w == nil {
		w = NewCGWork(n)
	}

	c.Diagonal(w.diag)
	for i, d := range w.diag {
		d += shift
		if d == 0 || math.IsNaN(d) {
			d = 1
		}
		w.diag[i] = d
	}

	// r₀ = b - A x₀
	c.MulVec(w.r, x, shift)
	floats.AddScaledTo(w.r, b, -1, w.r)

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}

	rho := 0.0
	for k := 0; k < maxIter; k++ {
		if floats.Norm(w.r, 2) <= tol*bnorm {
			return nil
		}
		for i, r := range w.r {
			w.z[i] = r / w.diag[i]
		}
		rhoPrev := rho
		rho = floats.Dot(w.r, w.z)
		if k == 0 {
			copy(w.p, w.z)
		} else {
			beta := rho / rhoPrev
			floats.AddScaledTo(w.p, w.z, beta, w.p)
		}
		c.MulVec(w.ap, w.p, shift)
		pap := floats.Dot(w.p, w.ap)
		if pap <= 0 || math.IsNaN(pap) {
			return ErrIndefinite
		}
		alpha := rho / pap
		floats.AddScaled(x, alpha, w.p)
		floats.AddScaled(w.r, -alpha, w.ap)
	}
	if floats.Norm(w.r, 2) <= tol*bnorm {
		return nil
	}
	return ErrNotConverged
}
