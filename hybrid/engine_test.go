// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"math"
	"testing"
)

// rosenbrock is the classic 2D Rosenbrock residual: f = [10(x2-x1²), 1-x1].
type rosenbrock struct{ UnconstrainedObjective }

func (rosenbrock) N() int { return 2 }
func (rosenbrock) M() int { return 2 }

func (rosenbrock) ComputeFunction(x, f []float64) {
	f[0] = 10 * (x[1] - x[0]*x[0])
	f[1] = 1 - x[0]
}

func (rosenbrock) ComputeDerivative(x, _, J []float64) {
	J[0], J[1] = -20*x[0], 10
	J[2], J[3] = -1, 0
}

func TestRosenbrock2D(t *testing.T) {
	ctrl := Control{FTol: 1e-8, GTol: 1e-8, MinStep: 1e-12, Delta0: 1, Tau: 1e-3, MaxIter: 100, UseCholesky: true}
	e, err := New(rosenbrock{}, []float64{-1.2, 1}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDriver(e)
	state := d.Run()

	if state&Finished == 0 {
		t.Fatalf("did not finish, state=%#x", state)
	}
	x := d.X()
	dist := math.Hypot(x[0]-1, x[1]-1)
	if dist > 1e-3 {
		t.Fatalf("x = %v not close to (1,1), dist=%v state=%#x", x, dist, state)
	}
}

// linearModel implements f(x) = A x - b for a fixed overdetermined A, b.
type linearModel struct {
	UnconstrainedObjective
	A    [][]float64
	b    []float64
	n, m int
}

func (l *linearModel) N() int { return l.n }
func (l *linearModel) M() int { return l.m }

func (l *linearModel) ComputeFunction(x, f []float64) {
	for i, row := range l.A {
		var s float64
		for j, a := range row {
			s += a * x[j]
		}
		f[i] = s - l.b[i]
	}
}

func (l *linearModel) ComputeDerivative(_, _, J []float64) {
	for i, row := range l.A {
		copy(J[i*l.n:(i+1)*l.n], row)
	}
}

func TestLinearOverdetermined(t *testing.T) {
	model := &linearModel{
		A: [][]float64{{1, 1}, {1, 2}, {1, 3}},
		b: []float64{2, 3, 4},
		n: 2, m: 3,
	}
	ctrl := Control{FTol: 1e-10, GTol: 1e-10, MinStep: 1e-12, Delta0: 1, Tau: 1e-3, MaxIter: 10, UseCholesky: true}
	e, err := New(model, []float64{0, 0}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDriver(e)
	state := d.Run()

	if state&Finished == 0 {
		t.Fatalf("did not finish, state=%#x", state)
	}
	x := d.X()
	if math.Abs(x[0]-1) > 1e-4 || math.Abs(x[1]-1) > 1e-4 {
		t.Fatalf("x = %v not close to (1,1)", x)
	}
}

func TestRankDeficient(t *testing.T) {
	// Two identical columns make JᵀJ singular. Tau is small enough that the
	// damping μ = Tau·max(JᵀJ)ᵢᵢ stays below the λ_max·ε deflation threshold,
	// so the damped LM matrix JᵀJ + μI is still numerically singular.
	model := &linearModel{
		A: [][]float64{{1, 1}, {1, 1}, {1, 1}},
		b: []float64{1, 2, 3},
		n: 2, m: 3,
	}
	ctrl := Control{FTol: 1e-10, GTol: 1e-10, MinStep: 1e-12, Delta0: 1, Tau: 1e-20, MaxIter: 1, UseCholesky: false}
	e, err := New(model, []float64{0.3, 0.7}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.Step()

	if e.Rank() >= e.n {
		t.Fatalf("rank = %d, want < %d for a singular A", e.Rank(), e.n)
	}
	for _, v := range e.X() {
		if math.IsNaN(v) {
			t.Fatalf("x contains NaN: %v", e.X())
		}
	}
}

// clampedScalar is f(x) = x, with TryStep clamping x below 0.1 up to 0.1.
type clampedScalar struct{}

func (clampedScalar) N() int { return 1 }
func (clampedScalar) M() int { return 1 }

func (clampedScalar) ComputeFunction(x, f []float64) { f[0] = x[0] }
func (clampedScalar) ComputeDerivative(_, _, J []float64) { J[0] = 1 }

func (clampedScalar) TryStep(_, xNew []float64) StepResult {
	if xNew[0] < 0.1 {
		xNew[0] = 0.1
		return Modified
	}
	return Valid
}

func TestStepModified(t *testing.T) {
	ctrl := Control{FTol: 1e-10, GTol: 1e-10, MinStep: 1e-12, Delta0: 1, Tau: 1e-3, MaxIter: 1, UseCholesky: true}
	e, err := New(clampedScalar{}, []float64{0.5}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	state := e.Step()

	if state&StepModified == 0 {
		t.Fatalf("expected StepModified, got state=%#x, xNew=%v", state, e.TrialX())
	}
	if math.Abs(e.TrialX()[0]-0.1) > 1e-12 {
		t.Fatalf("xNew = %v, want 0.1", e.TrialX())
	}
}

// invalidOnceScalar rejects the very first proposed step as unevaluable.
type invalidOnceScalar struct {
	UnconstrainedObjective
	calls int
}

func (*invalidOnceScalar) N() int { return 1 }
func (*invalidOnceScalar) M() int { return 1 }

func (*invalidOnceScalar) ComputeFunction(x, f []float64) { f[0] = x[0] }
func (*invalidOnceScalar) ComputeDerivative(_, _, J []float64) { J[0] = 1 }

func (o *invalidOnceScalar) TryStep(_, _ []float64) StepResult {
	o.calls++
	if o.calls == 1 {
		return Invalid
	}
	return Valid
}

func TestInvalidStepHalvesDelta(t *testing.T) {
	ctrl := Control{FTol: 1e-10, GTol: 1e-10, MinStep: 1e-12, Delta0: 1, Tau: 1e-3, MaxIter: 1, UseCholesky: true}
	obj := &invalidOnceScalar{}
	e, err := New(obj, []float64{1}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.method = BFGS
	deltaBefore := e.delta

	state := e.Step()

	if state&StepInvalid == 0 {
		t.Fatalf("expected StepInvalid, got state=%#x", state)
	}
	if e.delta != deltaBefore/2 {
		t.Fatalf("delta = %v, want %v", e.delta, deltaBefore/2)
	}
	if obj.calls != 1 {
		t.Fatalf("TryStep called %d times, want exactly 1", obj.calls)
	}
}

// stubReject always reports a large residual on every evaluated step after
// the constructor's initial evaluation, guaranteeing every LM step is
// rejected regardless of x, so the ν-doubling switch heuristic fires
// deterministically.
type stubReject struct {
	UnconstrainedObjective
	calls int
}

func (*stubReject) N() int { return 2 }
func (*stubReject) M() int { return 2 }

func (s *stubReject) ComputeFunction(_, f []float64) {
	if s.calls == 0 {
		f[0], f[1] = 1, 1
	} else {
		f[0], f[1] = 10, 10
	}
	s.calls++
}

func (*stubReject) ComputeDerivative(_, _, J []float64) {
	J[0], J[1] = 1, 0
	J[2], J[3] = 0, 1
}

func TestMethodSwitchOnRepeatedRejection(t *testing.T) {
	ctrl := Control{FTol: 1e-10, GTol: 1e-10, MinStep: 1e-12, Delta0: 1, Tau: 1e-1, MaxIter: 1, UseCholesky: true}
	e, err := New(&stubReject{}, []float64{1, 1}, ctrl, nil)
	if err != nil {
		t.Fatal(err)
	}

	switched := false
	for i := 0; i < 10 && !switched; i++ {
		e.Step()
		if e.Method() == BFGS {
			switched = true
		}
	}
	if !switched {
		t.Fatalf("method never switched to BFGS after repeated LM rejections, nu=%v", e.nu)
	}
	if e.delta <= 0 || math.IsNaN(e.delta) {
		t.Fatalf("delta not sanely initialized after switch: %v", e.delta)
	}
}

func TestNewValidatesDimensions(t *testing.T) {
	if _, err := New(rosenbrock{}, []float64{0}, DefaultControl(), nil); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if _, err := New(nil, []float64{0, 0}, DefaultControl(), nil); err == nil {
		t.Fatal("expected nil objective error")
	}
}
