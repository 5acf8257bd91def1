// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"
	"time"
)

// Info is the per-solve diagnostic record. Timing fields are averaged
// per iteration in seconds; TotalTime is the whole solve.
type Info struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`

	Energy     float64 `json:"energy"`
	Iterations int     `json:"iterations"`
	XDelta     float64 `json:"xDelta"`
	FDelta     float64 `json:"fDelta"`
	GradNorm   float64 `json:"gradNorm"`
	Condition  float64 `json:"condition"`

	LineSearch           string `json:"line_search"`
	LineSearchIterations int    `json:"line_search_iterations"`

	TotalTime                     float64 `json:"total_time"`
	GradTime                      float64 `json:"time_grad"`
	AssemblyTime                  float64 `json:"time_assembly"`
	InvertingTime                 float64 `json:"time_inverting"`
	LineSearchTime                float64 `json:"time_line_search"`
	ConstraintSetUpdateTime       float64 `json:"time_constraint_set_update"`
	ObjFunTime                    float64 `json:"time_obj_fun"`
	CheckingForNanInfTime         float64 `json:"time_checking_for_nan_inf"`
	BroadPhaseCCDTime             float64 `json:"time_broad_phase_ccd"`
	CCDTime                       float64 `json:"time_ccd"`
	ClassicalLineSearchTime       float64 `json:"time_classical_line_search"`
	LineSearchConstraintSetUpdate float64 `json:"time_line_search_constraint_set_update"`
}

func (s *Solver) resetInfo() {
	name := s.info.LineSearch
	s.info = Info{LineSearch: name}
	s.gradTime = 0
	s.lineSearchTime = 0
	s.constraintSetUpdateTime = 0
	s.objFunTime = 0
	s.totalTime = 0
}

// updateInfo refreshes the record from the current solve state. Per-iteration
// times are averaged over max(iterations, 1) so a zero-iteration solve still
// reports its setup cost.
func (s *Solver) updateInfo(energy float64) {
	s.info.Status = s.status.String()
	s.info.ErrorCode = s.errCode.String()

	// NaN marks an unset measurement; the record stores zero so that it
	// stays JSON-marshalable.
	s.info.Energy = orZero(energy)
	s.info.Iterations = s.current.Iterations
	s.info.XDelta = orZero(s.current.XDelta)
	s.info.FDelta = orZero(s.current.FDelta)
	s.info.GradNorm = orZero(s.current.GradNorm)
	s.info.Condition = orZero(s.current.Condition)

	perIter := 1.0 / float64(max(s.current.Iterations, 1))
	sec := func(d time.Duration) float64 { return d.Seconds() * perIter }

	st := s.search.stats()
	assembly, inverting := s.strategy.times()

	s.info.LineSearchIterations = st.iterations

	s.info.TotalTime = s.totalTime.Seconds()
	s.info.GradTime = sec(s.gradTime)
	s.info.AssemblyTime = sec(assembly)
	s.info.InvertingTime = sec(inverting)
	s.info.LineSearchTime = sec(s.lineSearchTime)
	s.info.ConstraintSetUpdateTime = sec(s.constraintSetUpdateTime)
	s.info.ObjFunTime = sec(s.objFunTime)
	s.info.CheckingForNanInfTime = sec(st.checkingForNanInfTime)
	s.info.BroadPhaseCCDTime = sec(st.broadPhaseCCDTime)
	s.info.CCDTime = sec(st.ccdTime)
	// The classical bucket contains its own constraint-set updates; subtract
	// them so the two fields do not double count.
	s.info.ClassicalLineSearchTime = sec(st.classicalLineSearchTime - st.constraintSetUpdateTime)
	s.info.LineSearchConstraintSetUpdate = sec(st.constraintSetUpdateTime)
}

func orZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Info returns a copy of the record from the most recent Minimize call.
func (s *Solver) Info() Info { return s.info }
