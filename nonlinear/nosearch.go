// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// NoLineSearch always takes the full configured step. The trial point is
// still announced through SolutionChanged and rejected when the objective
// becomes non-finite there.
type NoLineSearch struct {
	searchBase
}

func (*NoLineSearch) Name() string { return "None" }

func (ls *NoLineSearch) Search(x, delta []float64, f Problem) float64 {
	defer accum(&ls.st.classicalLineSearchTime)()

	step := ls.initStep
	floats.AddScaledTo(ls.xTrial, x, step, delta)

	stopCSU := accum(&ls.st.constraintSetUpdateTime)
	f.SolutionChanged(ls.xTrial)
	stopCSU()

	stopNaN := accum(&ls.st.checkingForNanInfTime)
	fx := f.Value(ls.xTrial)
	stopNaN()

	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return math.NaN()
	}
	return step
}
