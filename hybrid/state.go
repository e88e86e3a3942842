// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

// State is a bitmask describing the outcome of the last step and, once a
// terminal bit is set, the reason the optimizer stopped making progress.
// StepAccepted/StepModified/StepInvalid toggle freely across steps; the
// Success*/Failure* bits are sticky and are never cleared once set.
type State int

const (
	// StepAccepted is set when the last step improved the objective.
	StepAccepted State = 1 << iota
	// StepModified is set when the objective rewrote the proposed step.
	StepModified
	// StepInvalid is set when the objective refused to evaluate the proposed step.
	StepInvalid
	// SuccessFTol is set once ‖f‖∞ ≤ fTol.
	SuccessFTol
	// SuccessGTol is set once ‖g‖∞ ≤ gTol.
	SuccessGTol
	// FailureMinStep is set once the step length collapses below the minStep floor.
	FailureMinStep
	// FailureMinTrust is set once the BFGS trust radius collapses below the minStep floor.
	FailureMinTrust
	// FailureMaxIter is set by Run once maxIter steps have been taken without converging.
	FailureMaxIter
)

// Finished is the mask of terminal bits: Driver.Run stops as soon as any of
// these is set. Step itself does not check them and keeps iterating if it is
// called again.
const Finished = SuccessFTol | SuccessGTol | FailureMinStep | FailureMinTrust | FailureMaxIter

// Has reports whether all bits in mask are set in s.
func (s State) Has(mask State) bool { return s&mask == mask }

// Method names the currently active optimization strategy.
type Method int

const (
	// LM is damped Gauss-Newton: solves (JᵀJ + μI) h = -g.
	LM Method = iota
	// BFGS is the quasi-Newton trust-region step: solves B h = -g.
	BFGS
)

func (m Method) String() string {
	if m == BFGS {
		return "BFGS"
	}
	return "LM"
}
