package numdiff

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestGradQuadratic(t *testing.T) {

	// f(x) = (x₀-3)² + 2(x₁+1)²
	fun := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + 2*(x[1]+1)*(x[1]+1)
	}
	want := func(x []float64) []float64 {
		return []float64{2 * (x[0] - 3), 4 * (x[1] + 1)}
	}

	x0 := []float64{0.5, -2.0}
	grad := make([]float64, 2)

	for _, method := range []Method{Forward, Central} {
		gs := GradSpec{N: 2, Object: fun, Method: method}
		if err := gs.Diff(x0, grad); err != nil {
			t.Fatal("TestGradQuadratic:", err)
		}
		tol := 1e-6
		if method == Central {
			tol = 1e-8
		}
		for i, w := range want(x0) {
			if !closeTo(grad[i], w, tol) {
				t.Fatalf("TestGradQuadratic: grad[%d] = %g want %g", i, grad[i], w)
			}
		}
	}
}

func TestGradRosenbrock(t *testing.T) {

	fun := func(x []float64) float64 {
		a, b := 1-x[0], x[1]-x[0]*x[0]
		return a*a + 100*b*b
	}

	x0 := []float64{-1.2, 1.0}
	grad := make([]float64, 2)

	gs := GradSpec{N: 2, Object: fun, Method: Central}
	if err := gs.Diff(x0, grad); err != nil {
		t.Fatal("TestGradRosenbrock:", err)
	}

	gx := -2*(1-x0[0]) - 400*x0[0]*(x0[1]-x0[0]*x0[0])
	gy := 200 * (x0[1] - x0[0]*x0[0])
	switch {
	case !closeTo(grad[0], gx, 1e-5):
		t.Fatalf("TestGradRosenbrock: grad[0] = %g want %g", grad[0], gx)
	case !closeTo(grad[1], gy, 1e-5):
		t.Fatalf("TestGradRosenbrock: grad[1] = %g want %g", grad[1], gy)
	}
}

func TestGradCheck(t *testing.T) {

	fun := func(x []float64) float64 { return x[0] }
	grad := make([]float64, 1)

	tests := []struct {
		spec GradSpec
		x0   []float64
	}{
		{GradSpec{N: 0, Object: fun}, []float64{0}},
		{GradSpec{N: 1, Object: nil}, []float64{0}},
		{GradSpec{N: 1, Object: fun, Method: Method(7)}, []float64{0}},
		{GradSpec{N: 1, Object: fun}, []float64{0, 1}},
	}
	for i, tt := range tests {
		if err := tt.spec.Diff(tt.x0, grad); err == nil {
			t.Fatalf("TestGradCheck: case %d expected error", i)
		}
	}
}

func TestHessQuadratic(t *testing.T) {

	// f(x) = ½xᵀAx with A = [4 1; 1 3]
	grad := func(x, g []float64) {
		g[0] = 4*x[0] + x[1]
		g[1] = x[0] + 3*x[1]
	}

	x0 := []float64{0.7, -1.3}
	hess := mat.NewSymDense(2, nil)

	hs := HessSpec{N: 2, Grad: grad}
	if err := hs.Diff(x0, hess); err != nil {
		t.Fatal("TestHessQuadratic:", err)
	}

	want := [][2]float64{{4, 1}, {1, 3}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if !closeTo(hess.At(i, j), want[i][j], 1e-7) {
				t.Fatalf("TestHessQuadratic: H[%d][%d] = %g want %g", i, j, hess.At(i, j), want[i][j])
			}
		}
	}
}

func TestHessRosenbrock(t *testing.T) {

	grad := func(x, g []float64) {
		g[0] = -2*(1-x[0]) - 400*x[0]*(x[1]-x[0]*x[0])
		g[1] = 200 * (x[1] - x[0]*x[0])
	}

	x0 := []float64{-1.2, 1.0}
	hess := mat.NewSymDense(2, nil)

	hs := HessSpec{N: 2, Grad: grad}
	if err := hs.Diff(x0, hess); err != nil {
		t.Fatal("TestHessRosenbrock:", err)
	}

	h00 := 2 - 400*(x0[1]-3*x0[0]*x0[0])
	h01 := -400 * x0[0]
	switch {
	case !closeTo(hess.At(0, 0), h00, 1e-3):
		t.Fatalf("TestHessRosenbrock: H[0][0] = %g want %g", hess.At(0, 0), h00)
	case !closeTo(hess.At(0, 1), h01, 1e-3):
		t.Fatalf("TestHessRosenbrock: H[0][1] = %g want %g", hess.At(0, 1), h01)
	case !closeTo(hess.At(1, 1), 200, 1e-3):
		t.Fatalf("TestHessRosenbrock: H[1][1] = %g want 200", hess.At(1, 1))
	}
}
