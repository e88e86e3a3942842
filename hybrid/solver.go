// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// solver owns the scratch buffers needed to solve M h = -g for symmetric M,
// in either LDLᵀ or truncated-eigendecomposition mode. All buffers are
// allocated once in newSolver and reused by every solve call.
type solver struct {
	n int

	// LDLᵀ scratch: l holds the unit-lower-triangular factor (diagonal
	// implicitly 1, not stored) and d its diagonal; y/z are forward/scaled
	// substitution scratch.
	l    []float64 // row-major n×n, only the strict lower triangle is used
	d    []float64 // n
	y    []float64 // n
	z    []float64 // n

	// Eigen-mode scratch.
	eig    mat.EigenSym
	vecs   mat.Dense
	vals   []float64 // n, ascending once populated
	negG   []float64 // n
	proj   []float64 // n, V_rᵀ(-g)
}

func newSolver(n int) *solver {
	return &solver{
		n:    n,
		l:    make([]float64, n*n),
		d:    make([]float64, n),
		y:    make([]float64, n),
		z:    make([]float64, n),
		vals: make([]float64, n),
		negG: make([]float64, n),
		proj: make([]float64, n),
	}
}

// solveLDLT factors M = L D Lᵀ with L unit lower-triangular (no pivoting —
// the engine relies on μ/B's positive-definiteness to keep M well
// conditioned, per the step-acceptance test rather than a singularity
// check here) and solves M h = -g in place into h.
func (s *solver) solveLDLT(m *mat.SymDense, g, h []float64) {
	n := s.n
	l, d := s.l, s.d

	for j := 0; j < n; j++ {
		sum := m.At(j, j)
		row := l[j*n : j*n+j]
		for k, ljk := range row {
			sum -= ljk * ljk * d[k]
		}
		d[j] = sum
		for i := j + 1; i < n; i++ {
			sum := m.At(i, j)
			li, lj := l[i*n:i*n+j], l[j*n:j*n+j]
			for k := 0; k < j; k++ {
				sum -= li[k] * lj[k] * d[k]
			}
			l[i*n+j] = sum / d[j]
		}
	}

	y, z := s.y, s.z
	// Forward solve L y = -g.
	for i := 0; i < n; i++ {
		sum := -g[i]
		row := l[i*n : i*n+i]
		for k, lik := range row {
			sum -= lik * y[k]
		}
		y[i] = sum
	}
	// Scale D z = y.
	for i := 0; i < n; i++ {
		z[i] = y[i] / d[i]
	}
	// Back solve Lᵀ h = z.
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k*n+i] * h[k]
		}
		h[i] = sum
	}
}

// solveEigen computes the self-adjoint eigendecomposition M = V Λ Vᵀ with
// ascending eigenvalues, deflates eigenpairs below λ_max·ε_machine, and
// forms the minimum-norm solution h = V_r Λ_r⁻¹ V_rᵀ(-g) from the trailing
// rank eigenpairs. Returns the effective rank.
func (s *solver) solveEigen(m *mat.SymDense, g, h []float64) (rank int) {
	n := s.n

	if ok := s.eig.Factorize(m, true); !ok {
		for i := range h {
			h[i] = math.NaN()
		}
		return 0
	}
	vals := s.eig.Values(s.vals)
	s.eig.VectorsTo(&s.vecs)

	threshold := vals[n-1] * machineEps
	lo := 0
	for lo < n && vals[lo] < threshold {
		lo++
	}
	rank = n - lo

	for i := range s.negG {
		s.negG[i] = -g[i]
	}

	proj := s.proj[:rank]
	for c := 0; c < rank; c++ {
		col := lo + c
		var dot float64
		for i := 0; i < n; i++ {
			dot += s.vecs.At(i, col) * s.negG[i]
		}
		proj[c] = dot / vals[col]
	}

	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < rank; c++ {
			sum += s.vecs.At(i, lo+c) * proj[c]
		}
		h[i] = sum
	}
	return rank
}

// machineEps is the double-precision unit round-off, ε_machine = 2^-52.
var machineEps = math.Nextafter(1, 2) - 1
