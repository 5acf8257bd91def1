// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BFGS maintains a dense inverse-Hessian approximation and proposes
// Δx = −H∇𝒇. Its fallback rung resets H and takes −∇𝒇 directly.
type BFGS struct {
	descentBase

	level int
	first bool

	h     *mat.Dense
	hy    *mat.VecDense
	prevX []float64
	prevG []float64
	s, y  []float64
}

func (*BFGS) Name() string { return "BFGS" }

func (bf *BFGS) DescentStrategyName() string {
	if bf.level >= gradientDescentLevel {
		return "gradient descent"
	}
	return "BFGS"
}

func (bf *BFGS) Level() int                 { return bf.level }
func (*BFGS) IsDirectionDescent() bool      { return true }
func (bf *BFGS) SetDefaultDescentStrategy() { bf.level = 1 }

func (bf *BFGS) IncreaseDescentStrategy() {
	bf.level = gradientDescentLevel
	bf.resetHistory()
}

func (bf *BFGS) reset(n int) {
	bf.resetTimes()
	bf.level = 1
	if bf.prevX == nil || len(bf.prevX) != n {
		bf.h = mat.NewDense(n, n, nil)
		bf.hy = mat.NewVecDense(n, nil)
		bf.prevX = make([]float64, n)
		bf.prevG = make([]float64, n)
		bf.s = make([]float64, n)
		bf.y = make([]float64, n)
	}
	bf.resetHistory()
}

func (bf *BFGS) resetHistory() {
	bf.first = true
	n := len(bf.prevX)
	bf.h.Zero()
	for i := 0; i < n; i++ {
		bf.h.Set(i, i, 1)
	}
}

func (bf *BFGS) ComputeUpdateDirection(f Problem, x, grad, delta []float64) bool {
	if bf.level >= gradientDescentLevel {
		for i, g := range grad {
			delta[i] = -g
		}
		return true
	}

	n := len(x)
	if !bf.first {
		stopAsm := accum(&bf.assemblyTime)
		floats.SubTo(bf.s, x, bf.prevX)
		floats.SubTo(bf.y, grad, bf.prevG)

		sy := floats.Dot(bf.s, bf.y)
		yy := floats.Dot(bf.y, bf.y)
		// Skip updates that would destroy positive definiteness.
		if sy > machEps*yy {
			sv := mat.NewVecDense(n, bf.s)
			yv := mat.NewVecDense(n, bf.y)
			bf.hy.MulVec(bf.h, yv)
			yhy := mat.Dot(bf.hy, yv)

			bf.h.RankOne(bf.h, (sy+yhy)/(sy*sy), sv, sv)
			bf.h.RankOne(bf.h, -1/sy, sv, bf.hy)
			bf.h.RankOne(bf.h, -1/sy, bf.hy, sv)
		}
		stopAsm()
	}
	bf.first = false
	copy(bf.prevX, x)
	copy(bf.prevG, grad)

	stopInv := accum(&bf.invertingTime)
	dv := mat.NewVecDense(n, delta)
	dv.MulVec(bf.h, mat.NewVecDense(n, grad))
	floats.Scale(-1, delta)
	stopInv()
	return true
}
