// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func infNorm(v []float64) float64 { return floats.Norm(v, math.Inf(1)) }

func norm2(v []float64) float64 { return floats.Norm(v, 2) }

// addDiag adds c to every diagonal entry of sym in place.
func addDiag(sym *mat.SymDense, c float64) {
	n, _ := sym.Dims()
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, sym.At(i, i)+c)
	}
}

// maxDiag returns the largest diagonal entry of sym.
func maxDiag(sym *mat.SymDense) float64 {
	n, _ := sym.Dims()
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := sym.At(i, i); v > m {
			m = v
		}
	}
	return m
}

// identity sets sym to the n×n identity matrix.
func identity(sym *mat.SymDense) {
	n, _ := sym.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.0
			if i == j {
				v = 1.0
			}
			sym.SetSym(i, j, v)
		}
	}
}
