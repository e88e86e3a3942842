// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

// StepResult is the tri-state response of Objective.TryStep.
type StepResult int

const (
	// Valid accepts the proposed step as-is.
	Valid StepResult = iota
	// Modified means the objective overwrote xNew with a nearby feasible value;
	// the engine recomputes h = xNew - x and proceeds with the edited proposal.
	Modified
	// Invalid means the proposal is unevaluable; the engine skips evaluation,
	// treats the trial objective as +Inf, and shrinks its trust region.
	Invalid
)

// Objective is the capability set the engine needs from the residual model.
// N and M report the parameter and residual dimensions; they must stay
// constant for the lifetime of an Engine.
type Objective interface {
	N() int
	M() int

	// ComputeFunction fills f with the residual vector at x.
	ComputeFunction(x, f []float64)

	// ComputeDerivative fills J (row-major, M()×N()) with the Jacobian at x.
	// f is the already-computed residual at x, supplied for efficiency.
	ComputeDerivative(x, f, J []float64)

	// TryStep inspects a proposed step from x to xNew. Implementations that
	// have no domain constraints to enforce should always return Valid.
	TryStep(x, xNew []float64) StepResult
}

// UnconstrainedObjective can be embedded by an Objective implementation that
// never modifies or rejects a proposed step, so it only needs to implement
// ComputeFunction and ComputeDerivative.
type UnconstrainedObjective struct{}

// TryStep always accepts the proposed step unchanged.
func (UnconstrainedObjective) TryStep(x, xNew []float64) StepResult { return Valid }
