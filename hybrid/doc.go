// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hybrid implements a hybrid nonlinear least-squares optimizer that
// combines Levenberg–Marquardt (LM) with a quasi-Newton BFGS update,
// switching adaptively between them. It minimizes Q(x) = ½‖f(x)‖² for a
// caller-supplied residual f: ℝⁿ → ℝᵐ and Jacobian J = ∂f/∂x, exposed
// through the Objective interface.
//
// A typical caller builds an Engine with New, then either calls Step
// repeatedly to interleave its own inspection between iterations, or wraps
// the Engine in a Driver and calls Run to iterate to completion.
package hybrid
