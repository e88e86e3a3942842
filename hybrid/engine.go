// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var sqrtEps = math.Sqrt(machineEps)

// Engine holds the mutable iterate and derived quantities of the hybrid
// LM/BFGS optimizer and executes one Step at a time. Every buffer is
// allocated in New and reused for the lifetime of the Engine; Step never
// allocates the numeric backing arrays.
type Engine struct {
	obj    Objective
	ctrl   Control
	logger *Logger
	solver *solver

	n, m int

	x, xNew []float64
	f, fNew []float64
	g, gNew []float64
	h, y, v []float64

	J, JNew         *mat.Dense // m×n, views over jData/jNewData
	jData, jNewData []float64

	A, B *mat.SymDense // n×n

	jhBuf []float64 // m-length scratch for J·h products

	Q, QNew            float64
	normInfF, normInfG float64

	mu, nu, delta float64
	method        Method
	count         int
	rank          int
	state         State
}

// New constructs an Engine for obj starting at x0, validating ctrl and the
// dimensional agreement between obj and x0.
func New(obj Objective, x0 []float64, ctrl Control, logger *Logger) (*Engine, error) {
	if err := ctrl.validate(obj, x0); err != nil {
		return nil, err
	}

	n, m := obj.N(), obj.M()
	e := &Engine{
		obj: obj, ctrl: ctrl, logger: logger, solver: newSolver(n),
		n: n, m: m,
		x: append([]float64(nil), x0...), xNew: append([]float64(nil), x0...),
		f: make([]float64, m), fNew: make([]float64, m),
		g: make([]float64, n), gNew: make([]float64, n),
		h: make([]float64, n), y: make([]float64, n), v: make([]float64, n),
		jData: make([]float64, m*n), jNewData: make([]float64, m*n),
		jhBuf: make([]float64, m),
		nu:    2, delta: ctrl.Delta0, method: LM, rank: n,
	}
	e.J = mat.NewDense(m, n, e.jData)
	e.JNew = mat.NewDense(m, n, e.jNewData)
	e.A = mat.NewSymDense(n, nil)
	e.B = mat.NewSymDense(n, nil)

	e.obj.ComputeFunction(e.x, e.f)
	e.normInfF = infNorm(e.f)
	e.Q = 0.5 * dot(e.f, e.f)
	e.QNew = e.Q
	e.obj.ComputeDerivative(e.x, e.f, e.jData)
	copy(e.jNewData, e.jData)

	e.A.SymOuterK(1, e.J.T())
	e.mu = ctrl.Tau * maxDiag(e.A)
	addDiag(e.A, e.mu)

	identity(e.B)

	mulVec(e.g, e.J.T(), e.f, n)
	copy(e.gNew, e.g)
	e.normInfG = infNorm(e.g)

	copy(e.xNew, e.x)
	copy(e.fNew, e.f)

	return e, nil
}

// State returns the bitmask produced by the most recent Step (or 0 before
// the first Step).
func (e *Engine) State() State { return e.state }

// Method reports the currently active optimization strategy.
func (e *Engine) Method() Method { return e.method }

// X returns the current accepted parameters.
func (e *Engine) X() []float64 { return e.x }

// TrialX returns the last proposed parameters.
func (e *Engine) TrialX() []float64 { return e.xNew }

// F returns the residual at X.
func (e *Engine) F() []float64 { return e.f }

// TrialF returns the residual at TrialX.
func (e *Engine) TrialF() []float64 { return e.fNew }

// ChiSq returns 2·Q, the sum of squared residuals at X.
func (e *Engine) ChiSq() float64 { return 2 * e.Q }

// TrialChiSq returns 2·QNew, the sum of squared residuals at TrialX.
func (e *Engine) TrialChiSq() float64 { return 2 * e.QNew }

// NormInfF returns ‖f‖∞ at X.
func (e *Engine) NormInfF() float64 { return e.normInfF }

// NormInfG returns ‖g‖∞ at X.
func (e *Engine) NormInfG() float64 { return e.normInfG }

// Mu returns the current LM damping.
func (e *Engine) Mu() float64 { return e.mu }

// Delta returns the current BFGS trust radius.
func (e *Engine) Delta() float64 { return e.delta }

// Rank returns the effective rank reported by the last eigen-mode solve.
func (e *Engine) Rank() int { return e.rank }

// Objective returns the objective this Engine was constructed with.
func (e *Engine) Objective() Objective { return e.obj }

// Step executes a single iteration: computes a candidate step, evaluates
// it, decides acceptance, updates the LM/BFGS matrices, and switches
// method if the heuristic in §4.3 fires. It returns the updated state.
func (e *Engine) Step() State {
	isBetter := false
	shouldSwitch := false

	switch e.method {
	case LM:
		e.solve(e.A)
	case BFGS:
		e.solve(e.B)
	}

	normX := norm2(e.x)
	normH := norm2(e.h)
	if !(normH > e.ctrl.MinStep*(normX+e.ctrl.MinStep)) {
		e.state |= FailureMinStep
		return e.state
	}

	if e.method == BFGS && normH > e.delta {
		scale(e.h, e.delta/normH)
		normH = e.delta
	}

	for i := range e.xNew {
		e.xNew[i] = e.x[i] + e.h[i]
	}

	sr := e.obj.TryStep(e.x, e.xNew)
	switch sr {
	case Modified:
		e.state |= StepModified
		for i := range e.h {
			e.h[i] = e.xNew[i] - e.x[i]
		}
		normH = norm2(e.h)
		if !(normH > e.ctrl.MinStep*(normX+e.ctrl.MinStep)) {
			e.state |= FailureMinStep
			return e.state
		}
	case Invalid:
		e.state |= StepInvalid
		e.QNew = math.Inf(1)
	default:
		e.state &^= StepModified | StepInvalid
	}

	doStep := sr != Invalid
	if doStep {
		e.obj.ComputeFunction(e.xNew, e.fNew)
		e.QNew = 0.5 * dot(e.fNew, e.fNew)
		e.obj.ComputeDerivative(e.xNew, e.fNew, e.jNewData)
	}

	var normInfGNew float64
	if doStep && (e.method == BFGS || e.QNew < e.Q) {
		mulVec(e.gNew, e.JNew.T(), e.fNew, e.n)
		normInfGNew = infNorm(e.gNew)
	}

	switch e.method {
	case BFGS:
		isBetter = e.QNew < e.Q || (e.QNew <= (1+sqrtEps)*e.Q && normInfGNew < e.normInfG)
		shouldSwitch = normInfGNew >= e.normInfG
		if e.QNew < e.Q {
			mulVec(e.jhBuf, e.J, e.h, e.m)
			rho := (e.Q - e.QNew) / (-dot(e.h, e.g) + 0.5*dot(e.jhBuf, e.jhBuf))
			switch {
			case rho > 0.75:
				e.delta = math.Max(e.delta, 3*normH)
			case rho < 0.25:
				e.delta /= 2
				if !(e.delta > e.ctrl.MinStep*(normX+e.ctrl.MinStep)) {
					e.state |= FailureMinTrust
					return e.state
				}
			}
		} else {
			e.delta /= 2
			if !(e.delta > e.ctrl.MinStep*(normX+e.ctrl.MinStep)) {
				e.state |= FailureMinTrust
				return e.state
			}
		}
	case LM:
		if e.QNew < e.Q {
			isBetter = true
			var num float64
			for i := range e.h {
				num += e.h[i] * (e.g[i] - e.mu*e.h[i])
			}
			rho := (e.Q - e.QNew) / (-0.5 * num)
			e.mu *= math.Max(1.0/3.0, 1-cube(2*rho-1))
			e.nu = 2
			if math.Min(normInfGNew, e.Q-e.QNew) < 0.02*e.QNew {
				e.count++
				if e.count == 3 {
					shouldSwitch = true
				}
			} else {
				e.count = 0
			}
			if e.count != 3 {
				e.A.SymOuterK(1, e.JNew.T())
				addDiag(e.A, e.mu)
			}
		} else {
			addDiag(e.A, e.mu*(e.nu-1))
			e.mu *= e.nu
			e.nu *= 2
			shouldSwitch = e.nu >= 32
		}
	}

	if !doStep {
		e.state &^= StepAccepted
		return e.state
	}

	mulVec(e.jhBuf, e.JNew, e.h, e.m)
	mulVec(e.y, e.JNew.T(), e.jhBuf, e.n)
	for i := range e.y {
		e.y[i] += e.gNew[i] - e.g[i]
	}
	hy := dot(e.h, e.y)
	if hy > 0 {
		mulVec(e.v, e.B, e.h, e.n)
		hv := dot(e.h, e.v)
		vVec := mat.NewVecDense(e.n, e.v)
		yVec := mat.NewVecDense(e.n, e.y)
		e.B.SymRankOne(e.B, -1.0/hv, vVec)
		e.B.SymRankOne(e.B, 1.0/hy, yVec)
	}

	if isBetter {
		copy(e.x, e.xNew)
		copy(e.f, e.fNew)
		e.Q = e.QNew
		copy(e.jData, e.jNewData)
		copy(e.g, e.gNew)
		e.normInfF = infNorm(e.f)
		e.normInfG = normInfGNew
		if e.normInfF <= e.ctrl.FTol {
			e.state |= SuccessFTol
		}
		if e.normInfG <= e.ctrl.GTol {
			e.state |= SuccessGTol
		}
	}

	if shouldSwitch {
		if e.method == BFGS {
			e.A.SymOuterK(1, e.J.T())
			addDiag(e.A, e.mu)
			e.method = LM
		} else {
			e.delta = math.Max(1.5*e.ctrl.MinStep*(dot(e.f, e.f)+e.ctrl.MinStep), 0.2*normH)
			e.method = BFGS
		}
	}

	if isBetter {
		e.state |= StepAccepted
	} else {
		e.state &^= StepAccepted
	}

	e.logger.trace("method=%-4s Q=%.6e QNew=%.6e mu=%.3e delta=%.3e\n", e.method, e.Q, e.QNew, e.mu, e.delta)

	return e.state
}

func (e *Engine) solve(m *mat.SymDense) {
	if e.ctrl.UseCholesky {
		e.solver.solveLDLT(m, e.g, e.h)
	} else {
		e.rank = e.solver.solveEigen(m, e.g, e.h)
	}
}

func cube(x float64) float64 { return x * x * x }

func dot(a, b []float64) float64 {
	var s float64
	for i, v := range a {
		s += v * b[i]
	}
	return s
}

func scale(v []float64, c float64) {
	for i := range v {
		v[i] *= c
	}
}

// mulVec computes dst = a·src where a is an n-row matrix and dst has length n,
// wrapping the plain slices in non-copying gonum vector views.
func mulVec(dst []float64, a mat.Matrix, src []float64, n int) {
	d := mat.NewVecDense(n, dst)
	s := mat.NewVecDense(len(src), src)
	d.MulVec(a, s)
}
