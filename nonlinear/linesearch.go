// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"time"

	"github.com/pkg/errors"
)

// LineSearch picks a step size α along an update direction.
// Search returns the accepted α, or NaN when no acceptable step exists.
type LineSearch interface {
	Name() string
	Search(x, delta []float64, f Problem) float64

	reset(n int)
	stats() *searchStats
	setGradNormTol(tol float64)
}

// searchStats collects per-solve counters shared by every strategy.
type searchStats struct {
	iterations int

	checkingForNanInfTime   time.Duration
	constraintSetUpdateTime time.Duration
	classicalLineSearchTime time.Duration
	broadPhaseCCDTime       time.Duration
	ccdTime                 time.Duration
}

// searchBase carries the scratch and knobs common to all line searches.
type searchBase struct {
	initStep    float64
	maxHalvings int
	gradNormTol float64 // > 0 enables the small-gradient acceptance test

	xTrial []float64
	gTrial []float64
	st     searchStats
}

func (b *searchBase) reset(n int) {
	if len(b.xTrial) != n {
		b.xTrial = make([]float64, n)
		b.gTrial = make([]float64, n)
	}
	b.st = searchStats{}
}

func (b *searchBase) stats() *searchStats        { return &b.st }
func (b *searchBase) setGradNormTol(tol float64) { b.gradNormTol = tol }

func newLineSearch(cfg *LineSearchConfig) (LineSearch, error) {
	base := searchBase{
		initStep:    cfg.DefaultInitStep,
		maxHalvings: cfg.MaxIterations,
	}
	switch cfg.Method {
	case "None", "none":
		return &NoLineSearch{searchBase: base}, nil
	case "Armijo", "armijo", "ArmijoAlt", "armijo_alt":
		return &Armijo{searchBase: base}, nil
	case "Backtracking", "backtracking", "BacktrackingLineSearch":
		return &Backtracking{searchBase: base}, nil
	}
	return nil, errors.Errorf("unknown line search method: %q", cfg.Method)
}
