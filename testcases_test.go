// Copyright ©2025 The krylovkit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/krylovkit/iterative/internal/dok"
	"github.com/krylovkit/iterative/internal/triplet"
)

// testCase describes a linear system together with an iteration budget within
// which the methods are expected to converge and a tolerance for comparing the
// computed solution with the reference one.
type testCase struct {
	name  string
	n     int
	iters int
	tol   float64
	a     MatrixOps
}

// randomSPD returns a dense symmetric positive definite matrix of order n with
// a dominant diagonal.
func randomSPD(n int, rnd *rand.Rand) testCase {
	a := make([]float64, n*n)
	lda := n
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a[i*lda+j] = rnd.Float64()
		}
	}
	for i := 0; i < n; i++ {
		a[i*lda+i] += float64(n)
	}
	bi := blas64.Implementation()
	mulVec := func(dst, x []float64) {
		bi.Dsymv(blas.Upper, n, 1, a, lda, x, 1, 0, dst, 1)
	}
	return testCase{
		name:  fmt.Sprintf("randomSPD(%v)", n),
		n:     n,
		iters: 4*n + 40,
		tol:   1e-9,
		a: MatrixOps{
			MatVec:      mulVec,
			MatTransVec: mulVec,
		},
	}
}

// laplacian1D returns the n×n matrix of the one-dimensional Laplacian, a
// sparse symmetric positive definite matrix stored in one triangular half.
func laplacian1D(n int) testCase {
	m := triplet.NewSymmetric(n)
	for i := 0; i < n; i++ {
		m.Append(i, i, 2)
		if i < n-1 {
			m.Append(i+1, i, -1)
		}
	}
	return testCase{
		name:  fmt.Sprintf("laplacian1D(%v)", n),
		n:     n,
		iters: 10 * n,
		tol:   1e-6,
		a: MatrixOps{
			MatVec:      m.MulVec,
			MatTransVec: m.MulVec,
		},
	}
}

// indefiniteDiag returns a sparse diagonal matrix of order n with eigenvalues
// of alternating sign, a symmetric indefinite system that positive definite
// methods cannot handle.
func indefiniteDiag(n int) testCase {
	m := triplet.NewSymmetric(n)
	for i := 0; i < n; i++ {
		d := float64(i + 1)
		if i%2 == 1 {
			d = -d
		}
		m.Append(i, i, d)
	}
	return testCase{
		name:  fmt.Sprintf("indefiniteDiag(%v)", n),
		n:     n,
		iters: 10 * n,
		tol:   1e-8,
		a: MatrixOps{
			MatVec:      m.MulVec,
			MatTransVec: m.MulVec,
		},
	}
}

// randomNonsym returns a sparse non-symmetric matrix of order n with a
// dominant diagonal.
func randomNonsym(n int, rnd *rand.Rand) testCase {
	m := dok.New(n, n)
	for i := 0; i < n; i++ {
		m.SetAt(i, i, float64(n)+rnd.Float64())
	}
	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			j := rnd.Intn(n)
			if j != i && m.At(i, j) == 0 {
				m.SetAt(i, j, rnd.Float64()-0.5)
			}
		}
	}
	return testCase{
		name:  fmt.Sprintf("randomNonsym(%v)", n),
		n:     n,
		iters: 10 * n,
		tol:   1e-8,
		a: MatrixOps{
			MatVec:      m.MulVec,
			MatTransVec: m.MulTransVec,
		},
	}
}

// convectionDiffusion1D returns the n×n tridiagonal matrix of a shifted
// one-dimensional convection-diffusion operator assembled in coordinate
// format, a sparse non-symmetric matrix with real positive eigenvalues.
func convectionDiffusion1D(n int) testCase {
	m := triplet.New(n, n)
	for i := 0; i < n; i++ {
		m.Append(i, i, 4)
		if i < n-1 {
			m.Append(i+1, i, -1.1)
			m.Append(i, i+1, -0.9)
		}
	}
	return testCase{
		name:  fmt.Sprintf("convectionDiffusion1D(%v)", n),
		n:     n,
		iters: 10 * n,
		tol:   1e-8,
		a: MatrixOps{
			MatVec:      m.MulVec,
			MatTransVec: m.MulTransVec,
		},
	}
}
