// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nonlinear

import (
	"math"
	"time"
)

// gradientDescentLevel is the terminal rung of every fallback ladder:
// once a strategy reaches it the update direction is plain −∇𝒇.
const gradientDescentLevel = 2

var machEps = math.Nextafter(1, 2) - 1

// Strategy produces update directions and degrades itself through a
// ladder of fallbacks when its primary scheme fails.
type Strategy interface {
	Name() string
	// DescentStrategyName describes the currently active rung.
	DescentStrategyName() string
	// Level reports the current rung; gradientDescentLevel is terminal.
	Level() int

	// ComputeUpdateDirection stores the proposed Δx into delta.
	// It returns false when the current rung cannot produce a direction.
	ComputeUpdateDirection(f Problem, x, grad, delta []float64) bool
	// IsDirectionDescent reports whether the proposal must be validated
	// against Δx⋅∇𝒇 < 0 before it is trusted.
	IsDirectionDescent() bool
	IncreaseDescentStrategy()
	SetDefaultDescentStrategy()

	reset(n int)
	times() (assembly, inverting time.Duration)
}

type descentBase struct {
	assemblyTime  time.Duration
	invertingTime time.Duration
}

func (b *descentBase) times() (time.Duration, time.Duration) {
	return b.assemblyTime, b.invertingTime
}

func (b *descentBase) resetTimes() {
	b.assemblyTime = 0
	b.invertingTime = 0
}
