// Copyright ©2026 The krylovkit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// MINRES implements the Minimum Residual iterative method with preconditioning
// for solving the system of linear equations
//  Ax = b,
// where A is a symmetric, possibly indefinite matrix. For non-symmetric
// systems use BiCG, BiCGSTAB or GMRES.
//
// The preconditioner M must be symmetric positive definite even when A is
// indefinite.
//
// MINRES needs MatVec and PSolve matrix operations.
type MINRES struct {
	resume    int
	breakdown bool

	alpha, beta      float64
	betaNew, betaOne float64
	c, cOld          float64
	s, sOld          float64
	eta              float64

	// normRMR is the residual norm estimate maintained by the rotation
	// recurrence, normR0 its initial value. The convergence test uses the
	// recomputed residual, not this estimate.
	normRMR, normR0 float64

	vOld, v, vNew  []float64
	w, wNew        []float64
	p, pOld, pOold []float64
}

// Init implements the Method interface.
func (m *MINRES) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}

	m.vOld = reuse(m.vOld, dim)
	m.v = reuse(m.v, dim)
	m.vNew = reuse(m.vNew, dim)
	m.w = reuse(m.w, dim)
	m.wNew = reuse(m.wNew, dim)
	m.p = reuse(m.p, dim)
	m.pOld = reuse(m.pOld, dim)
	m.pOold = reuse(m.pOold, dim)
	for i := range m.v {
		m.v[i] = 0
		m.p[i] = 0
		m.pOld[i] = 0
	}

	m.breakdown = false
	m.resume = 1
}

// Iterate implements the Method interface.
func (m *MINRES) Iterate(ctx *Context) (Operation, error) {
	switch m.resume {
	case 1:
		copy(m.vNew, ctx.Residual)
		ctx.Src = m.vNew
		ctx.Dst = m.wNew
		m.resume = 2
		return PSolve, nil
		// Solve M w_new = v_new.
	case 2:
		t := floats.Dot(m.vNew, m.wNew)
		if t <= 0 || math.IsNaN(t) {
			m.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("iterative: preconditioner is not positive definite")
		}
		m.betaOne = math.Sqrt(t)
		m.betaNew = m.betaOne
		floats.Scale(1/m.betaNew, m.vNew)
		floats.Scale(1/m.betaNew, m.wNew)
		m.c, m.cOld = 1, 1
		m.s, m.sOld = 0, 0
		m.eta = 1
		m.normRMR = m.betaOne
		m.normR0 = m.betaOne
		fallthrough
	case 3:
		// Lanczos process, variant A(2,7) of Paige (1972).
		m.beta = m.betaNew
		m.vOld, m.v, m.vNew = m.v, m.vNew, m.vOld
		m.w, m.wNew = m.wNew, m.w
		ctx.Src = m.w
		ctx.Dst = m.vNew
		m.resume = 4
		return MatVec, nil
		// Compute A w.
	case 4:
		floats.AddScaled(m.vNew, -m.beta, m.vOld) // v_new = A w - beta v_old
		m.alpha = floats.Dot(m.vNew, m.w)
		floats.AddScaled(m.vNew, -m.alpha, m.v)
		ctx.Src = m.vNew
		ctx.Dst = m.wNew
		m.resume = 5
		return PSolve, nil
		// Solve M w_new = v_new.
	case 5:
		t := floats.Dot(m.vNew, m.wNew)
		switch {
		case math.IsNaN(t):
			m.resume = 0
			return NoOperation, errors.New("iterative: beta breakdown")
		case t > 0:
			m.betaNew = math.Sqrt(t)
			floats.Scale(1/m.betaNew, m.vNew)
			floats.Scale(1/m.betaNew, m.wNew)
		default:
			// The Krylov subspace has been exhausted, finish the
			// current step and stop after the convergence check.
			m.betaNew = 0
			m.breakdown = true
		}

		// Update the QR factorization of the Lanczos tridiagonal with
		// the two previous Givens rotations, then compute a new
		// rotation zeroing out beta_new.
		r2 := m.s*m.alpha + m.c*m.cOld*m.beta
		r3 := m.sOld * m.beta
		r1hat := m.c*m.alpha - m.cOld*m.s*m.beta
		r1 := math.Hypot(r1hat, m.betaNew)
		if r1 == 0 {
			m.resume = 0
			return NoOperation, errors.New("iterative: givens breakdown")
		}
		m.cOld, m.sOld = m.c, m.s
		m.c = r1hat / r1
		m.s = m.betaNew / r1

		m.pOold, m.pOld, m.p = m.pOld, m.p, m.pOold
		copy(m.p, m.w)
		floats.AddScaled(m.p, -r2, m.pOld)
		floats.AddScaled(m.p, -r3, m.pOold)
		floats.Scale(1/r1, m.p)

		floats.AddScaled(ctx.X, m.betaOne*m.c*m.eta, m.p)
		m.normRMR *= math.Abs(m.s)

		ctx.Src = nil
		ctx.Dst = nil
		m.resume = 6
		return ComputeResidual, nil
		// Compute r = b - A x.
	case 6:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		m.resume = 7
		return CheckResidualNorm, nil
	case 7:
		if ctx.Converged {
			m.resume = 0
			return EndIteration, nil
		}
		if m.breakdown {
			m.resume = 0
			return NoOperation, errors.New("iterative: beta breakdown")
		}
		// Prepare for the next iteration.
		m.eta = -m.s * m.eta
		m.resume = 3
		return EndIteration, nil

	default:
		panic("iterative: MINRES.Init not called")
	}
}
