// Copyright ©2025 The krylovkit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dok provides sparse matrices in dictionary-of-keys format.
package dok

type DOK struct {
	rows, cols int

	data map[index]float64
}

type index struct {
	row, col int
}

func New(r, c int) *DOK {
	return &DOK{
		rows: r,
		cols: c,
		data: make(map[index]float64),
	}
}

func (m *DOK) At(i, j int) float64 {
	if i < 0 || m.rows <= i {
		panic("row index out of range")
	}
	if j < 0 || m.cols <= j {
		panic("column index out of range")
	}
	return m.data[index{i, j}]
}

func (m *DOK) SetAt(i, j int, v float64) {
	if i < 0 || m.rows <= i {
		panic("row index out of range")
	}
	if j < 0 || m.cols <= j {
		panic("column index out of range")
	}
	m.data[index{i, j}] = v
}

func (m *DOK) MulVec(dst, x []float64) {
	if m.cols != len(x) {
		panic("dimension mismatch")
	}
	if m.rows != len(dst) {
		panic("dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for ij, aij := range m.data {
		dst[ij.row] += aij * x[ij.col]
	}
}

func (m *DOK) MulTransVec(dst, x []float64) {
	if m.cols != len(dst) {
		panic("dimension mismatch")
	}
	if m.rows != len(x) {
		panic("dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for ij, aij := range m.data {
		dst[ij.col] += aij * x[ij.row]
	}
}
