// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"io"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config selects a solver and its stopping thresholds. The zero value is
// not usable; start from DefaultConfig and override fields, or pass the
// overrides as YAML/JSON to NewSolver.
type Config struct {
	Solver string `json:"solver"`

	XDelta           float64 `json:"x_delta"`
	FDelta           float64 `json:"f_delta"`
	GradNorm         float64 `json:"grad_norm"`
	MaxIterations    int     `json:"max_iterations"`
	FirstGradNormTol float64 `json:"first_grad_norm_tol"`

	AllowOutOfIterations bool `json:"allow_out_of_iterations"`

	LineSearch LineSearchConfig `json:"line_search"`
	LBFGS      LBFGSConfig      `json:"lbfgs"`
	Newton     NewtonConfig     `json:"newton"`
}

type LineSearchConfig struct {
	Method string `json:"method"`
	// UseGradNormTol also accepts a line-search trial whose gradient norm
	// already fell below this value. Zero disables the test.
	UseGradNormTol  float64 `json:"use_grad_norm_tol"`
	DefaultInitStep float64 `json:"default_init_step"`
	// MaxIterations bounds the number of step halvings.
	MaxIterations int `json:"max_iterations"`
}

type LBFGSConfig struct {
	HistorySize int `json:"history_size"`
}

type NewtonConfig struct {
	MaxRegularizations int `json:"max_regularizations"`
}

// LinearSolverConfig tunes the iterative linear solver backing SparseNewton.
type LinearSolverConfig struct {
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

func DefaultConfig() Config {
	return Config{
		GradNorm:         1e-8,
		MaxIterations:    500,
		FirstGradNormTol: 1e-10,
		LineSearch: LineSearchConfig{
			Method:          "Armijo",
			DefaultInitStep: 1,
			MaxIterations:   30,
		},
		LBFGS:  LBFGSConfig{HistorySize: 6},
		Newton: NewtonConfig{MaxRegularizations: 8},
	}
}

func DefaultLinearSolverConfig() LinearSolverConfig {
	return LinearSolverConfig{
		Tolerance:     1e-10,
		MaxIterations: 1000,
	}
}

// Check validates the thresholds and knobs.
func (c *Config) Check() (err error) {
	switch {
	case c.Solver == "":
		err = errors.New("solver name is required")
	case c.XDelta < 0 || c.FDelta < 0 || c.GradNorm < 0:
		err = errors.New("negative stopping tolerance")
	case c.MaxIterations <= 0:
		err = errors.New("iteration limit must be positive")
	case c.FirstGradNormTol < 0 || c.LineSearch.UseGradNormTol < 0:
		err = errors.New("negative gradient tolerance")
	case c.LineSearch.DefaultInitStep <= 0:
		err = errors.New("initial step must be positive")
	case c.LineSearch.MaxIterations <= 0:
		err = errors.New("line search needs at least one iteration")
	case c.LBFGS.HistorySize <= 0:
		err = errors.New("history size must be positive")
	case c.Newton.MaxRegularizations <= 0:
		err = errors.New("regularization attempts must be positive")
	}
	return
}

func (c *LinearSolverConfig) Check() (err error) {
	switch {
	case c.Tolerance <= 0:
		err = errors.New("linear solver tolerance must be positive")
	case c.MaxIterations <= 0:
		err = errors.New("linear solver needs at least one iteration")
	}
	return
}

// AvailableSolvers lists the canonical strategy names accepted by NewSolver.
func AvailableSolvers() []string {
	return []string{"BFGS", "DenseNewton", "GradientDescent", "L-BFGS", "SparseNewton"}
}

func newStrategy(cfg *Config, lin *LinearSolverConfig) (Strategy, error) {
	switch cfg.Solver {
	case "BFGS", "bfgs":
		return &BFGS{}, nil
	case "L-BFGS", "LBFGS", "lbfgs":
		return &LBFGS{m: cfg.LBFGS.HistorySize}, nil
	case "DenseNewton", "dense_newton":
		return &DenseNewton{maxRegularizations: cfg.Newton.MaxRegularizations}, nil
	case "Newton", "SparseNewton", "sparse_newton":
		return &SparseNewton{
			maxRegularizations: cfg.Newton.MaxRegularizations,
			tol:                lin.Tolerance,
			maxIter:            lin.MaxIterations,
		}, nil
	case "GradientDescent", "gradient_descent":
		return &GradientDescent{}, nil
	}
	return nil, errors.Errorf("unknown solver: %q", cfg.Solver)
}

// NewSolver builds a Solver from YAML (or JSON) parameter documents layered
// over the defaults. Stopping tolerances are scaled once by the problem's
// characteristic length. A nil logger discards all output.
func NewSolver(solverParams, linearParams []byte, characteristicLength float64, logger logrus.FieldLogger) (*Solver, error) {
	cfg := DefaultConfig()
	if len(solverParams) > 0 {
		if err := yaml.Unmarshal(solverParams, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse solver params")
		}
	}
	lin := DefaultLinearSolverConfig()
	if len(linearParams) > 0 {
		if err := yaml.Unmarshal(linearParams, &lin); err != nil {
			return nil, errors.Wrap(err, "parse linear solver params")
		}
	}
	return NewSolverFromConfig(cfg, lin, characteristicLength, logger)
}

// NewSolverFromConfig is NewSolver for callers that already hold a Config.
func NewSolverFromConfig(cfg Config, lin LinearSolverConfig, characteristicLength float64, logger logrus.FieldLogger) (*Solver, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if err := lin.Check(); err != nil {
		return nil, err
	}
	if characteristicLength <= 0 {
		characteristicLength = 1
	}

	strategy, err := newStrategy(&cfg, &lin)
	if err != nil {
		return nil, err
	}
	search, err := newLineSearch(&cfg.LineSearch)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	s := &Solver{
		strategy: strategy,
		search:   search,
		logger:   logger,

		characteristicLength: characteristicLength,
		allowOutOfIterations: cfg.AllowOutOfIterations,
	}
	s.stop.Iterations = cfg.MaxIterations
	s.stop.XDelta = cfg.XDelta * characteristicLength
	s.stop.FDelta = cfg.FDelta * characteristicLength
	s.stop.GradNorm = cfg.GradNorm * characteristicLength
	s.firstGradNormTol = cfg.FirstGradNormTol * characteristicLength
	search.setGradNormTol(cfg.LineSearch.UseGradNormTol * characteristicLength)

	s.info.LineSearch = search.Name()
	return s, nil
}
