// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// armijoC is the sufficient-decrease constant of the Armijo condition.
const armijoC = 1e-4

// Armijo halves the step until 𝒇(x+αΔx) ≤ 𝒇(x) + c·α·Δx⋅∇𝒇.
type Armijo struct {
	searchBase
}

func (*Armijo) Name() string { return "Armijo" }

func (ls *Armijo) Search(x, delta []float64, f Problem) float64 {
	f0 := f.Value(x)
	f.Gradient(x, ls.gTrial)
	dg := floats.Dot(delta, ls.gTrial)
	return ls.backtrack(x, delta, f, func(alpha, fx float64) bool {
		return fx <= f0+armijoC*alpha*dg
	})
}

// Backtracking halves the step until plain decrease 𝒇(x+αΔx) < 𝒇(x).
type Backtracking struct {
	searchBase
}

func (*Backtracking) Name() string { return "Backtracking" }

func (ls *Backtracking) Search(x, delta []float64, f Problem) float64 {
	f0 := f.Value(x)
	return ls.backtrack(x, delta, f, func(_, fx float64) bool {
		return fx < f0
	})
}

// backtrack runs the step-halving loop shared by the backtracking family.
// accept judges a finite trial value; when the line search's own gradient
// tolerance (use_grad_norm_tol) is positive, a trial also passes if the
// gradient norm there is below it. Returns NaN when the halving budget runs out.
func (b *searchBase) backtrack(x, delta []float64, f Problem, accept func(alpha, fx float64) bool) float64 {
	stop := accum(&b.st.classicalLineSearchTime)
	defer stop()

	alpha := b.initStep
	for i := 0; i < b.maxHalvings; i++ {
		b.st.iterations++
		floats.AddScaledTo(b.xTrial, x, alpha, delta)

		stopCSU := accum(&b.st.constraintSetUpdateTime)
		f.SolutionChanged(b.xTrial)
		stopCSU()

		stopNaN := accum(&b.st.checkingForNanInfTime)
		fx := f.Value(b.xTrial)
		finite := !math.IsNaN(fx) && !math.IsInf(fx, 0)
		stopNaN()

		if finite {
			if accept(alpha, fx) {
				return alpha
			}
			if b.gradNormTol > 0 {
				f.Gradient(b.xTrial, b.gTrial)
				if floats.Norm(b.gTrial, 2) < b.gradNormTol {
					return alpha
				}
			}
		}
		alpha /= 2
	}
	return math.NaN()
}
