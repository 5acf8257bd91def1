package numdiff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// GradSpec estimates the gradient of a scalar function by finite differences.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	// The argument x passed to this function is an n-vector.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute absolute step size.
	// The default absolute step size is computed as h = RelStep * sign(x0) * max(1, abs(x0)) with RelStep being selected automatically.
	// Otherwise, absolute step size is computed as h = RelStep * sign(x0) * abs(x0) when RelStep is provided.
	RelStep float64
	// Absolute step size to use.
	// The RelStep is used when AbsStep is not provided.
	AbsStep float64
	gradCtx
}

type gradCtx struct {
	absStep []float64
}

// Check the parameters and initialize gradCtx.
func (gs *GradSpec) Check(x0, grad []float64) (err error) {
	switch {
	case gs.N <= 0:
		err = errors.New("negative dimensions")
	case gs.Method != Forward && gs.Method != Central:
		err = errors.New("unknown method")
	case gs.Object == nil:
		err = errors.New("object function is required")
	case gs.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case gs.N != len(grad):
		err = errors.New("invalid grad dimensions")
	}
	if len(gs.absStep) != gs.N {
		gs.absStep = make([]float64, gs.N)
	}
	return
}

// Diff calculate the gradient approximation by finite differences.
func (gs *GradSpec) Diff(x0, grad []float64) error {
	if err := gs.Check(x0, grad); err != nil {
		return err
	}
	absoluteStep(gs.absStep, x0, gs.Method, gs.AbsStep, gs.RelStep)

	fun, h := gs.Object, gs.absStep
	if gs.Method == Forward {
		f0 := fun(x0)
		for i, s := range h {
			t := x0[i]
			x0[i] = t + s
			grad[i] = (fun(x0) - f0) / s
			x0[i] = t
		}
	} else {
		for i, s := range h {
			t := x0[i]
			x0[i] = t - s
			f1 := fun(x0)
			x0[i] = t + s
			f2 := fun(x0)
			grad[i] = (f2 - f1) / (2 * s)
			x0[i] = t
		}
	}
	return nil
}

// HessSpec estimates the symmetric Hessian of a scalar function by central
// differences over its analytic gradient, one gradient pair per column.
type HessSpec struct {
	N int
	// Gradient of the function of which to estimate the Hessian.
	// The result is stored in an n-vector g.
	Grad func(x, g []float64)
	// Relative step size, see GradSpec.
	RelStep float64
	// Absolute step size, see GradSpec.
	AbsStep float64
	hessCtx
}

type hessCtx struct {
	gp, gm  []float64
	absStep []float64
	cols    []float64
}

// Check the parameters and initialize hessCtx.
func (hs *HessSpec) Check(x0 []float64, dst *mat.SymDense) (err error) {
	switch {
	case hs.N <= 0:
		err = errors.New("negative dimensions")
	case hs.Grad == nil:
		err = errors.New("gradient function is required")
	case hs.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case dst == nil || dst.SymmetricDim() != hs.N:
		err = errors.New("invalid hessian dimensions")
	}
	if len(hs.gp) != hs.N {
		hs.gp = make([]float64, hs.N)
		hs.gm = make([]float64, hs.N)
		hs.absStep = make([]float64, hs.N)
		hs.cols = make([]float64, hs.N*hs.N)
	}
	return
}

// Diff calculate the Hessian approximation by central differences.
// The unsymmetric raw estimate (∇g)ᵢⱼ is symmetrized as ½(Hᵢⱼ + Hⱼᵢ).
func (hs *HessSpec) Diff(x0 []float64, dst *mat.SymDense) error {
	if err := hs.Check(x0, dst); err != nil {
		return err
	}
	absoluteStep(hs.absStep, x0, Central, hs.AbsStep, hs.RelStep)

	grad, gp, gm, h, n := hs.Grad, hs.gp, hs.gm, hs.absStep, hs.N
	cols := hs.cols
	for i, s := range h {
		t := x0[i]
		x0[i] = t + s
		grad(x0, gp)
		x0[i] = t - s
		grad(x0, gm)
		x0[i] = t
		d := 1.0 / (2 * s)
		for j := 0; j < n; j++ {
			cols[i*n+j] = (gp[j] - gm[j]) * d
		}
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, 0.5*(cols[i*n+j]+cols[j*n+i]))
		}
	}
	return nil
}

func absoluteStep(h, x0 []float64, method Method, abs, rel float64) {
	if len(h) != len(x0) {
		panic("bound check error")
	}

	eps := sqrtEps
	if method == Central {
		eps = cubeEps
	}

	if abs == 0 && rel == 0 {
		for i, v := range x0 {
			h[i] = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		return
	}
	for i, v := range x0 {
		s := abs
		if s == 0 {
			s = math.Copysign(rel, v) * math.Abs(v)
		}
		if d := (v + s) - v; d == 0 {
			s = math.Copysign(eps, v) * math.Max(1.0, math.Abs(v))
		}
		h[i] = s
	}
}
