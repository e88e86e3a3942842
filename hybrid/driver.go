// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

// Driver runs an Engine to completion and reports why it stopped. Engine
// already exposes Step directly for callers that want to interleave their
// own inspection between iterations; Driver is the convenience wrapper for
// the common run-to-completion case.
type Driver struct {
	*Engine
}

// NewDriver wraps an already-constructed Engine.
func NewDriver(e *Engine) *Driver { return &Driver{Engine: e} }

// Run executes Step until a terminal state bit is set or ctrl.MaxIter
// iterations have elapsed, whichever comes first. If MaxIter is exhausted
// without reaching a terminal state, FailureMaxIter is set.
func (d *Driver) Run() State {
	for n := 0; n < d.ctrl.MaxIter; n++ {
		if s := d.Step(); s&Finished != 0 {
			d.logger.summary("hybrid: stopped after %d steps, state=%#x\n", n+1, s)
			return s
		}
	}
	d.state |= FailureMaxIter
	d.logger.summary("hybrid: exhausted %d iterations\n", d.ctrl.MaxIter)
	return d.state
}
