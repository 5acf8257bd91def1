// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1e-8, cfg.GradNorm)
	assert.Equal(t, 500, cfg.MaxIterations)
	assert.Equal(t, 1e-10, cfg.FirstGradNormTol)
	assert.Zero(t, cfg.XDelta)
	assert.Zero(t, cfg.FDelta)
	assert.Equal(t, "Armijo", cfg.LineSearch.Method)
	assert.Equal(t, 1.0, cfg.LineSearch.DefaultInitStep)
	assert.Equal(t, 30, cfg.LineSearch.MaxIterations)
	assert.Equal(t, 6, cfg.LBFGS.HistorySize)
	assert.Equal(t, 8, cfg.Newton.MaxRegularizations)

	lin := DefaultLinearSolverConfig()
	assert.Equal(t, 1e-10, lin.Tolerance)
	assert.Equal(t, 1000, lin.MaxIterations)
}

func TestConfigFromYAML(t *testing.T) {
	params := []byte(`
solver: L-BFGS
grad_norm: 1e-6
max_iterations: 100
line_search:
  method: Backtracking
  default_init_step: 0.5
  max_iterations: 20
lbfgs:
  history_size: 12
`)
	s, err := NewSolver(params, nil, 1, nil)
	require.NoError(t, err)

	lb, ok := s.strategy.(*LBFGS)
	require.True(t, ok, "expected an L-BFGS strategy")
	assert.Equal(t, 12, lb.m)
	assert.Equal(t, "Backtracking", s.search.Name())
	assert.Equal(t, 1e-6, s.stop.GradNorm)
	assert.Equal(t, 100, s.stop.Iterations)
}

func TestConfigCharacteristicLength(t *testing.T) {
	params := []byte("solver: BFGS\ngrad_norm: 1e-6\nx_delta: 1e-5")
	s, err := NewSolver(params, nil, 0.5, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5e-7, s.stop.GradNorm, 1e-20)
	assert.InDelta(t, 5e-6, s.stop.XDelta, 1e-20)
	assert.InDelta(t, 5e-11, s.firstGradNormTol, 1e-24)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing solver", func(c *Config) { c.Solver = "" }},
		{"negative tolerance", func(c *Config) { c.GradNorm = -1 }},
		{"negative iterations", func(c *Config) { c.MaxIterations = -1 }},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"bad init step", func(c *Config) { c.LineSearch.DefaultInitStep = 0 }},
		{"bad halvings", func(c *Config) { c.LineSearch.MaxIterations = 0 }},
		{"bad history", func(c *Config) { c.LBFGS.HistorySize = 0 }},
		{"bad regularizations", func(c *Config) { c.Newton.MaxRegularizations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Solver = "BFGS"
			tt.mutate(&cfg)
			_, err := NewSolverFromConfig(cfg, DefaultLinearSolverConfig(), 1, nil)
			assert.Error(t, err)
		})
	}
}

func TestConfigUnknownSolver(t *testing.T) {
	_, err := NewSolver([]byte("solver: SimulatedAnnealing"), nil, 1, nil)
	assert.Error(t, err)
}

func TestConfigBadYAML(t *testing.T) {
	_, err := NewSolver([]byte("solver: [unclosed"), nil, 1, nil)
	assert.Error(t, err)

	_, err = NewSolver([]byte("solver: BFGS"), []byte("tolerance: [oops"), 1, nil)
	assert.Error(t, err)
}

func TestConfigSolverAliases(t *testing.T) {
	aliases := map[string]string{
		"BFGS":             "BFGS",
		"bfgs":             "BFGS",
		"L-BFGS":           "L-BFGS",
		"lbfgs":            "L-BFGS",
		"DenseNewton":      "DenseNewton",
		"dense_newton":     "DenseNewton",
		"Newton":           "SparseNewton",
		"SparseNewton":     "SparseNewton",
		"sparse_newton":    "SparseNewton",
		"GradientDescent":  "GradientDescent",
		"gradient_descent": "GradientDescent",
	}
	for alias, want := range aliases {
		cfg := DefaultConfig()
		cfg.Solver = alias
		lin := DefaultLinearSolverConfig()
		strategy, err := newStrategy(&cfg, &lin)
		require.NoError(t, err, alias)
		assert.Equal(t, want, strategy.Name(), alias)
	}
}

func TestAvailableSolvers(t *testing.T) {
	names := AvailableSolvers()
	require.NotEmpty(t, names)
	for _, name := range names {
		cfg := DefaultConfig()
		cfg.Solver = name
		lin := DefaultLinearSolverConfig()
		_, err := newStrategy(&cfg, &lin)
		assert.NoError(t, err, name)
	}
}

func TestLinearSolverValidation(t *testing.T) {
	lin := DefaultLinearSolverConfig()
	lin.Tolerance = 0
	assert.Error(t, lin.Check())

	lin = DefaultLinearSolverConfig()
	lin.MaxIterations = 0
	assert.Error(t, lin.Check())
}
