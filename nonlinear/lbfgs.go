// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"gonum.org/v1/gonum/floats"
)

// LBFGS proposes Δx = −H∇𝒇 with H implied by the m most recent (s,y)
// pairs via the two-loop recursion. Memory cost is O(m·n) instead of
// the O(n²) a dense inverse carries.
type LBFGS struct {
	descentBase

	m     int
	level int
	first bool

	s, y  [][]float64 // ring buffers, stored oldest-first from head
	rho   []float64
	alpha []float64
	head  int // next slot to overwrite
	count int

	prevX []float64
	prevG []float64
	q     []float64
}

func (*LBFGS) Name() string { return "L-BFGS" }

func (lb *LBFGS) DescentStrategyName() string {
	if lb.level >= gradientDescentLevel {
		return "gradient descent"
	}
	return "L-BFGS"
}

func (lb *LBFGS) Level() int                 { return lb.level }
func (*LBFGS) IsDirectionDescent() bool      { return true }
func (lb *LBFGS) SetDefaultDescentStrategy() { lb.level = 1 }

func (lb *LBFGS) IncreaseDescentStrategy() {
	lb.level = gradientDescentLevel
	lb.first = true
	lb.head = 0
	lb.count = 0
}

func (lb *LBFGS) reset(n int) {
	lb.resetTimes()
	lb.level = 1
	if lb.prevX == nil || len(lb.prevX) != n {
		lb.s = make([][]float64, lb.m)
		lb.y = make([][]float64, lb.m)
		for i := 0; i < lb.m; i++ {
			lb.s[i] = make([]float64, n)
			lb.y[i] = make([]float64, n)
		}
		lb.rho = make([]float64, lb.m)
		lb.alpha = make([]float64, lb.m)
		lb.prevX = make([]float64, n)
		lb.prevG = make([]float64, n)
		lb.q = make([]float64, n)
	}
	lb.first = true
	lb.head = 0
	lb.count = 0
}

func (lb *LBFGS) ComputeUpdateDirection(f Problem, x, grad, delta []float64) bool {
	if lb.level >= gradientDescentLevel {
		for i, g := range grad {
			delta[i] = -g
		}
		return true
	}

	stopAsm := accum(&lb.assemblyTime)
	if !lb.first {
		s, y := lb.s[lb.head], lb.y[lb.head]
		floats.SubTo(s, x, lb.prevX)
		floats.SubTo(y, grad, lb.prevG)
		sy := floats.Dot(s, y)
		if sy > machEps*floats.Dot(y, y) {
			lb.rho[lb.head] = 1 / sy
			lb.head = (lb.head + 1) % lb.m
			if lb.count < lb.m {
				lb.count++
			}
		} else {
			// A pair without enough positive curvature drops the stored
			// history too, so the proposal restarts from −∇𝒇 instead of
			// reusing a stale model.
			lb.head = 0
			lb.count = 0
		}
	}
	lb.first = false
	copy(lb.prevX, x)
	copy(lb.prevG, grad)
	stopAsm()

	stopInv := accum(&lb.invertingTime)
	defer stopInv()

	copy(lb.q, grad)
	if lb.count == 0 {
		for i, q := range lb.q {
			delta[i] = -q
		}
		return true
	}

	// Newest to oldest.
	for k := 0; k < lb.count; k++ {
		i := (lb.head - 1 - k + lb.m) % lb.m
		lb.alpha[i] = lb.rho[i] * floats.Dot(lb.s[i], lb.q)
		floats.AddScaled(lb.q, -lb.alpha[i], lb.y[i])
	}

	// Initial scaling H₀ = γI with γ = sᵀy/yᵀy of the newest pair.
	newest := (lb.head - 1 + lb.m) % lb.m
	gamma := floats.Dot(lb.s[newest], lb.y[newest]) / floats.Dot(lb.y[newest], lb.y[newest])
	floats.Scale(gamma, lb.q)

	// Oldest to newest.
	for k := lb.count - 1; k >= 0; k-- {
		i := (lb.head - 1 - k + lb.m) % lb.m
		beta := lb.rho[i] * floats.Dot(lb.y[i], lb.q)
		floats.AddScaled(lb.q, lb.alpha[i]-beta, lb.s[i])
	}

	for i, q := range lb.q {
		delta[i] = -q
	}
	return true
}
