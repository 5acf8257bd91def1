// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/nonlinear/numdiff"
)

// DenseNewton solves HΔx = −∇𝒇 with a dense factorization. The ladder is
// plain Newton, then Tikhonov-regularized Newton with a doubling shift,
// then gradient descent. Objectives without an analytic Hessian are
// differentiated numerically over their gradient.
type DenseNewton struct {
	descentBase

	level              int
	maxRegularizations int

	hess  *mat.SymDense
	shift *mat.SymDense
	neg   []float64
	fd    numdiff.HessSpec
}

func (*DenseNewton) Name() string { return "DenseNewton" }

func (dn *DenseNewton) DescentStrategyName() string {
	switch dn.level {
	case 0:
		return "Newton"
	case 1:
		return "regularized Newton"
	}
	return "gradient descent"
}

func (dn *DenseNewton) Level() int                 { return dn.level }
func (*DenseNewton) IsDirectionDescent() bool      { return true }
func (dn *DenseNewton) SetDefaultDescentStrategy() { dn.level = 0 }

func (dn *DenseNewton) IncreaseDescentStrategy() {
	if dn.level < gradientDescentLevel {
		dn.level++
	}
}

func (dn *DenseNewton) reset(n int) {
	dn.resetTimes()
	dn.level = 0
	if dn.neg == nil || len(dn.neg) != n {
		dn.hess = mat.NewSymDense(n, nil)
		dn.shift = mat.NewSymDense(n, nil)
		dn.neg = make([]float64, n)
	}
	dn.fd = numdiff.HessSpec{N: n}
}

func (dn *DenseNewton) assemble(f Problem, x []float64) bool {
	defer accum(&dn.assemblyTime)()
	if dh, ok := f.(DenseHessianer); ok {
		dh.Hessian(x, dn.hess)
		return true
	}
	dn.fd.Grad = f.Gradient
	return dn.fd.Diff(x, dn.hess) == nil
}

func (dn *DenseNewton) ComputeUpdateDirection(f Problem, x, grad, delta []float64) bool {
	if dn.level >= gradientDescentLevel {
		for i, g := range grad {
			delta[i] = -g
		}
		return true
	}

	if !dn.assemble(f, x) {
		return false
	}
	for i, g := range grad {
		dn.neg[i] = -g
	}

	defer accum(&dn.invertingTime)()
	if dn.level == 0 {
		return dn.solve(dn.hess, delta)
	}

	// Regularized rung: H + λI with λ doubling until a factorization holds.
	lambda := machEps * mat.Norm(dn.hess, math.Inf(1))
	if lambda == 0 {
		lambda = machEps
	}
	n := dn.hess.SymmetricDim()
	for attempt := 0; attempt < dn.maxRegularizations; attempt++ {
		dn.shift.CopySym(dn.hess)
		for i := 0; i < n; i++ {
			dn.shift.SetSym(i, i, dn.hess.At(i, i)+lambda)
		}
		if dn.solve(dn.shift, delta) {
			return true
		}
		lambda *= 2
	}
	return false
}

func (dn *DenseNewton) solve(h *mat.SymDense, delta []float64) bool {
	n := len(delta)
	dv := mat.NewVecDense(n, delta)
	rhs := mat.NewVecDense(n, dn.neg)

	var ch mat.Cholesky
	if ch.Factorize(h) {
		if err := ch.SolveVecTo(dv, rhs); err == nil && allFinite(delta) {
			return true
		}
	}
	var lu mat.LU
	lu.Factorize(h)
	if err := lu.SolveVecTo(dv, false, rhs); err != nil {
		return false
	}
	return allFinite(delta)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
