// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Solver drives a descent Strategy and a LineSearch until a stopping
// criterion fires. Build one with NewSolver; a Solver is reusable but
// not safe for concurrent Minimize calls.
type Solver struct {
	stop    Criteria
	current Criteria
	status  Status
	errCode ErrorCode

	strategy Strategy
	search   LineSearch
	logger   logrus.FieldLogger

	characteristicLength float64
	firstGradNormTol     float64
	allowOutOfIterations bool

	grad  []float64
	delta []float64

	info Info

	gradTime                time.Duration
	lineSearchTime          time.Duration
	constraintSetUpdateTime time.Duration
	objFunTime              time.Duration
	totalTime               time.Duration
}

// Status reports how the most recent Minimize call ended.
func (s *Solver) Status() Status { return s.status }

// Criteria returns the measurements of the most recent iteration.
func (s *Solver) Criteria() Criteria { return s.current }

func (s *Solver) reset(n int) {
	s.current.reset()
	s.status = Continue
	s.errCode = Success
	s.strategy.reset(n)
	s.strategy.SetDefaultDescentStrategy()
	s.search.reset(n)
	s.resetInfo()
	if len(s.grad) != n {
		s.grad = make([]float64, n)
		s.delta = make([]float64, n)
	}
}

func (s *Solver) fatal(code ErrorCode, msg string) error {
	s.status = UserDefined
	s.errCode = code
	s.logger.WithFields(logrus.Fields{
		"solver": s.strategy.Name(),
		"error":  code.String(),
	}).Error(msg)
	return errors.New(msg)
}

// Minimize runs the descent loop on f starting from x, which is updated
// in place to the last accepted iterate. A non-nil error reports a fatal
// failure; running out of iterations is fatal unless configured otherwise.
func (s *Solver) Minimize(f Problem, x []float64) error {
	n := len(x)
	if n == 0 {
		return errors.New("empty initial guess")
	}
	s.reset(n)
	start := time.Now()

	stopCSU := accum(&s.constraintSetUpdateTime)
	f.SolutionChanged(x)
	stopCSU()

	// The very first gradient check uses its own, much tighter tolerance:
	// a start point that already satisfies grad_norm may still be far from
	// a stationary point of interest.
	gNormTol := s.stop.GradNorm
	s.stop.GradNorm = s.firstGradNormTol

	f.SaveToFile(x)
	s.logger.WithFields(logrus.Fields{
		"solver":      s.strategy.Name(),
		"line_search": s.search.Name(),
		"dim":         n,
		"char_length": s.characteristicLength,
	}).Debug("starting minimization")
	s.updateInfo(f.Value(x))

	fPrev := math.NaN()
	energy := math.NaN()
	var fatal error

	for {
		s.current.XDelta = math.NaN()
		s.current.FDelta = math.NaN()
		s.current.GradNorm = math.NaN()

		stopObj := accum(&s.objFunTime)
		energy = f.Value(x)
		stopObj()
		if math.IsNaN(energy) || math.IsInf(energy, 0) {
			fatal = s.fatal(NaNEncountered, "objective value is not finite")
			break
		}
		if !math.IsNaN(fPrev) {
			s.current.FDelta = math.Abs(fPrev - energy)
		}
		fPrev = energy

		if s.status = checkConvergence(&s.stop, &s.current); s.status != Continue {
			break
		}

		stopGrad := accum(&s.gradTime)
		f.Gradient(x, s.grad)
		stopGrad()
		s.current.GradNorm = floats.Norm(s.grad, 2)
		if math.IsNaN(s.current.GradNorm) {
			fatal = s.fatal(NaNEncountered, "gradient is not finite")
			break
		}

		if s.status = checkConvergence(&s.stop, &s.current); s.status != Continue {
			break
		}

		if !s.strategy.ComputeUpdateDirection(f, x, s.grad, s.delta) {
			if s.strategy.Level() >= gradientDescentLevel {
				fatal = s.fatal(NotDescentDirection, "no update direction at terminal strategy")
				break
			}
			s.strategy.IncreaseDescentStrategy()
			s.logger.WithField("strategy", s.strategy.DescentStrategyName()).
				Debug("direction computation failed, increasing descent strategy")
			continue
		}

		if s.strategy.IsDirectionDescent() && s.current.GradNorm != 0 &&
			floats.Dot(s.delta, s.grad) >= 0 {
			if s.strategy.Level() >= gradientDescentLevel {
				fatal = s.fatal(NotDescentDirection, "update direction is not a descent direction")
				break
			}
			s.strategy.IncreaseDescentStrategy()
			s.logger.WithField("strategy", s.strategy.DescentStrategyName()).
				Debug("direction is not descent, increasing descent strategy")
			continue
		}

		deltaNorm := floats.Norm(s.delta, 2)
		if math.IsNaN(deltaNorm) {
			if s.strategy.Level() >= gradientDescentLevel {
				fatal = s.fatal(NaNEncountered, "update direction is not finite")
				break
			}
			s.strategy.IncreaseDescentStrategy()
			continue
		}

		// At gradient descent the step length is not a meaningful proximity
		// measure, so the xDelta criterion is suspended.
		if s.strategy.Level() >= gradientDescentLevel {
			s.current.XDelta = math.NaN()
		} else {
			s.current.XDelta = deltaNorm
		}

		if s.status = checkConvergence(&s.stop, &s.current); s.status != Continue {
			break
		}

		stopLS := accum(&s.lineSearchTime)
		rate := s.search.Search(x, s.delta, f)
		stopLS()
		if math.IsNaN(rate) {
			if s.strategy.Level() < gradientDescentLevel {
				s.strategy.IncreaseDescentStrategy()
				s.logger.WithField("strategy", s.strategy.DescentStrategyName()).
					Warn("line search failed, increasing descent strategy")
				continue
			}
			fatal = s.fatal(LineSearchFailed, "line search failed on gradient descent")
			break
		}

		floats.AddScaled(x, rate, s.delta)
		s.strategy.SetDefaultDescentStrategy()

		if f.Stop(x) {
			s.status = UserDefined
			s.logger.Debug("objective decided to stop")
		}
		f.PostStep(s.current.Iterations, x)

		s.logger.WithFields(logrus.Fields{
			"strategy": s.strategy.DescentStrategyName(),
			"iter":     s.current.Iterations,
			"f":        energy,
			"gradNorm": s.current.GradNorm,
			"xDelta":   s.current.XDelta,
			"rate":     rate,
		}).Debug("iteration")

		s.current.Iterations++
		if s.stop.Iterations > 0 && s.current.Iterations >= s.stop.Iterations {
			s.status = IterationLimit
		}
		s.updateInfo(energy)
		f.SaveToFile(x)
		s.stop.GradNorm = gNormTol

		if !f.Callback(s.current, x) || s.status != Continue {
			break
		}
	}

	s.totalTime = time.Since(start)
	s.stop.GradNorm = gNormTol

	if fatal != nil {
		s.updateInfo(energy)
		return fatal
	}

	if s.status == IterationLimit && !s.allowOutOfIterations {
		s.updateInfo(energy)
		s.logger.WithField("solver", s.strategy.Name()).
			Error("reached the max number of iterations")
		return errors.New("reached the max number of iterations")
	}

	s.logger.WithFields(logrus.Fields{
		"solver":     s.strategy.Name(),
		"status":     s.status.String(),
		"iterations": s.current.Iterations,
		"energy":     energy,
	}).Debug("finished minimization")
	s.logTimes()
	s.updateInfo(f.Value(x))
	return nil
}

func (s *Solver) logTimes() {
	st := s.search.stats()
	assembly, inverting := s.strategy.times()
	s.logger.WithFields(logrus.Fields{
		"total":       s.totalTime,
		"obj_fun":     s.objFunTime,
		"grad":        s.gradTime,
		"assembly":    assembly,
		"inverting":   inverting,
		"line_search": s.lineSearchTime,
		"csu":         s.constraintSetUpdateTime + st.constraintSetUpdateTime,
	}).Debug("time breakdown")
}
