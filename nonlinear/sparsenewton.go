// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/nonlinear/internal/sparse"
	"github.com/curioloop/nonlinear/numdiff"
)

// SparseNewton follows the same ladder as DenseNewton but assembles the
// Hessian entry-wise into a sparse matrix and solves with preconditioned
// conjugate gradients. The regularization shift doubles until CG accepts
// the system.
type SparseNewton struct {
	descentBase

	level              int
	maxRegularizations int
	tol                float64
	maxIter            int

	dok   *sparse.DOK
	work  *sparse.CGWork
	neg   []float64
	dense *mat.SymDense
	fd    numdiff.HessSpec
}

func (*SparseNewton) Name() string { return "SparseNewton" }

func (sn *SparseNewton) DescentStrategyName() string {
	switch sn.level {
	case 0:
		return "Newton"
	case 1:
		return "regularized Newton"
	}
	return "gradient descent"
}

func (sn *SparseNewton) Level() int                 { return sn.level }
func (*SparseNewton) IsDirectionDescent() bool      { return true }
func (sn *SparseNewton) SetDefaultDescentStrategy() { sn.level = 0 }

func (sn *SparseNewton) IncreaseDescentStrategy() {
	if sn.level < gradientDescentLevel {
		sn.level++
	}
}

func (sn *SparseNewton) reset(n int) {
	sn.resetTimes()
	sn.level = 0
	if sn.neg == nil || len(sn.neg) != n {
		sn.dok = sparse.NewDOK(n)
		sn.work = sparse.NewCGWork(n)
		sn.neg = make([]float64, n)
	}
	sn.fd = numdiff.HessSpec{N: n}
}

func (sn *SparseNewton) assemble(f Problem, x []float64) bool {
	defer accum(&sn.assemblyTime)()
	sn.dok.Reset()
	if sh, ok := f.(SparseHessianer); ok {
		sh.HessianSparse(x, sn.dok.Add)
		return true
	}

	// Densify path for objectives without entry-wise assembly.
	n := len(x)
	if sn.dense == nil || sn.dense.SymmetricDim() != n {
		sn.dense = mat.NewSymDense(n, nil)
	}
	if dh, ok := f.(DenseHessianer); ok {
		dh.Hessian(x, sn.dense)
	} else {
		sn.fd.Grad = f.Gradient
		if err := sn.fd.Diff(x, sn.dense); err != nil {
			return false
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := sn.dense.At(i, j); v != 0 {
				sn.dok.Add(i, j, v)
			}
		}
	}
	return true
}

func (sn *SparseNewton) ComputeUpdateDirection(f Problem, x, grad, delta []float64) bool {
	if sn.level >= gradientDescentLevel {
		for i, g := range grad {
			delta[i] = -g
		}
		return true
	}

	if !sn.assemble(f, x) {
		return false
	}
	for i, g := range grad {
		sn.neg[i] = -g
	}

	defer accum(&sn.invertingTime)()
	csr := sn.dok.CSR()

	if sn.level == 0 {
		zero(delta)
		return csr.SolveCG(delta, sn.neg, 0, sn.tol, sn.maxIter, sn.work) == nil && allFinite(delta)
	}

	lambda := machEps * csr.InfNorm()
	if lambda == 0 {
		lambda = machEps
	}
	for attempt := 0; attempt < sn.maxRegularizations; attempt++ {
		zero(delta)
		if err := csr.SolveCG(delta, sn.neg, lambda, sn.tol, sn.maxIter, sn.work); err == nil && allFinite(delta) {
			return true
		}
		lambda *= 2
	}
	return false
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}
