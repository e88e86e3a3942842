// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"errors"
	"math"
)

// Control holds the scalar tuning parameters of the optimizer. All fields
// are finite and positive unless documented otherwise.
type Control struct {
	// FTol is the residual infinity-norm convergence threshold; it may be zero.
	FTol float64
	// GTol is the gradient infinity-norm convergence threshold; it may be zero.
	GTol float64
	// MinStep is the minimum relative step length before failure is declared.
	MinStep float64
	// Delta0 is the initial BFGS trust radius.
	Delta0 float64
	// Tau is the initial LM damping scale factor (typical 1e-3 .. 1).
	Tau float64
	// MaxIter bounds the number of iterations Run will take.
	MaxIter int
	// UseCholesky selects the LDLᵀ solve over the truncated-eigendecomposition solve.
	UseCholesky bool
}

// DefaultControl returns reasonable defaults for a problem whose residuals
// are scaled to order unity. Callers should tune Tau and MinStep to their
// problem's scale.
func DefaultControl() Control {
	return Control{
		FTol:        1e-8,
		GTol:        1e-8,
		MinStep:     1e-10,
		Delta0:      1.0,
		Tau:         1e-3,
		MaxIter:     200,
		UseCholesky: true,
	}
}

func (c Control) validate(obj Objective, x0 []float64) error {
	switch {
	case obj == nil:
		return errors.New("hybrid: objective is required")
	case len(x0) == 0:
		return errors.New("hybrid: initial parameters must be non-empty")
	case obj.N() != len(x0):
		return errors.New("hybrid: objective parameter size does not match initial x")
	case obj.M() <= 0:
		return errors.New("hybrid: objective residual size must be positive")
	case c.MaxIter <= 0:
		return errors.New("hybrid: MaxIter must be greater than 0")
	case !(c.MinStep > 0):
		return errors.New("hybrid: MinStep must be greater than 0")
	case !(c.Delta0 > 0):
		return errors.New("hybrid: Delta0 must be greater than 0")
	case !(c.Tau > 0) || math.IsInf(c.Tau, 1):
		return errors.New("hybrid: Tau must be finite and greater than 0")
	case c.FTol < 0:
		return errors.New("hybrid: FTol must not be negative")
	case c.GTol < 0:
		return errors.New("hybrid: GTol must not be negative")
	}
	return nil
}
