// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import "gonum.org/v1/gonum/mat"

// Problem is the objective minimized by a Solver.
// Value and Gradient must accept any x of the dimension passed to Minimize;
// the remaining hooks let callers observe or abort the iteration.
type Problem interface {
	// Value evaluates 𝒇(x).
	Value(x []float64) float64
	// Gradient stores ∇𝒇(x) into dst.
	Gradient(x, dst []float64)
	// SolutionChanged is invoked whenever the iterate (or a trial point
	// inside a line search) moves, before Value or Gradient is queried there.
	SolutionChanged(x []float64)
	// Stop lets the objective end the solve with Success after a step.
	Stop(x []float64) bool
	// PostStep runs after each accepted step.
	PostStep(iter int, x []float64)
	// SaveToFile persists the iterate; called before the loop and after each step.
	SaveToFile(x []float64)
	// Callback decides whether the loop may continue. Returning false ends
	// the solve without touching the status.
	Callback(current Criteria, x []float64) bool
}

// DenseHessianer is implemented by objectives that provide an analytic
// dense Hessian. Newton strategies fall back to finite differences otherwise.
type DenseHessianer interface {
	Hessian(x []float64, dst *mat.SymDense)
}

// SparseHessianer is implemented by objectives whose Hessian is assembled
// entry-wise. Duplicate (i,j) contributions accumulate.
type SparseHessianer interface {
	HessianSparse(x []float64, set func(i, j int, v float64))
}

// NoProblem provides no-op hooks so objectives only implement what they need.
//
//	type Rosenbrock struct{ nonlinear.NoProblem }
type NoProblem struct{}

func (NoProblem) SolutionChanged(x []float64)           {}
func (NoProblem) Stop(x []float64) bool                 { return false }
func (NoProblem) PostStep(iter int, x []float64)        {}
func (NoProblem) SaveToFile(x []float64)                {}
func (NoProblem) Callback(c Criteria, x []float64) bool { return true }
