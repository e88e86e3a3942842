// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import "github.com/curioloop/optimizer/numdiff"

// numericObjective adapts a residual-only function into a full Objective by
// estimating J with finite differences at every evaluated point. It never
// rejects or modifies a step, so it embeds UnconstrainedObjective.
type numericObjective struct {
	UnconstrainedObjective
	n, m int
	fn   func(x, y []float64)
	spec numdiff.ApproxSpec
}

// NumericJacobian builds an Objective around fn (which only computes
// residuals) that approximates J(x) with numdiff's finite-difference
// machinery instead of requiring an analytic derivative. This is
// convenience sugar, not automatic differentiation: every call still
// perturbs x and evaluates fn N+1 (Forward) or 2N+1 (Central) times per
// Jacobian, the same cost a
// caller would pay hand-rolling central differences.
func NumericJacobian(fn func(x, y []float64), n, m int, method numdiff.Method) Objective {
	return &numericObjective{
		n: n, m: m, fn: fn,
		spec: numdiff.ApproxSpec{N: n, M: m, Object: fn, Method: method},
	}
}

func (o *numericObjective) N() int { return o.n }
func (o *numericObjective) M() int { return o.m }

func (o *numericObjective) ComputeFunction(x, f []float64) { o.fn(x, f) }

// ComputeDerivative estimates J at x via numdiff; f is unused since the
// finite-difference machinery re-evaluates fn itself at perturbed points.
func (o *numericObjective) ComputeDerivative(x, _, J []float64) {
	if err := o.spec.Diff(x, J); err != nil {
		panic(err)
	}
}
