// Copyright ©2025 The krylovkit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"
)

// MatrixOps describes the matrix of the
// linear system in terms of A*x and A^T*x
// operations.
type MatrixOps struct {
	// MatVec computes A*x and stores the
	// result into dst. It must be
	// non-nil.
	MatVec func(dst, x []float64)

	// MatTransVec computes A^T*x and
	// stores the result into dst. If the
	// Method does not command
	// MatTransVec, this can be nil.
	MatTransVec func(dst, x []float64)
}

// Settings holds settings for solving a linear system.
type Settings struct {
	// X0 is an initial guess.
	// If it is nil, the zero vector will
	// be used.
	// If it is not nil, the length of X0
	// must be equal to the dimension of
	// the system.
	X0 []float64

	// Tolerance specifies error
	// tolerance for the final
	// approximate solution produced by
	// the iterative method. The iteration
	// will be stopped when
	//  |r_i| / |b| < Tolerance
	// where r_i is the residual at i-th
	// iteration.
	// If it is zero, a default value of
	// twice the machine epsilon will be
	// used.
	Tolerance float64

	// MaxIterations is the limit on the
	// number of iterations.
	// If it is zero, a default value of
	// the dimension of the system will
	// be used.
	// It must not be negative.
	MaxIterations int

	// PSolve describes a preconditioner
	// solve that stores into dst the
	// solution of the system
	//  M z = rhs.
	// If it is nil, no preconditioning
	// will be used (M is the identity).
	PSolve func(dst, rhs []float64) error

	// PSolveTrans describes a
	// preconditioner solve that stores
	// into dst the solution of the
	// system
	//  M^T z = rhs.
	// If it is nil, no preconditioning
	// will be used (M is the identity).
	PSolveTrans func(dst, rhs []float64) error
}

// Result holds the result of an iterative solve.
type Result struct {
	// X is the approximate solution.
	X []float64

	// Stats holds statistics about the
	// iterative process.
	Stats Stats
}

// Stats holds statistics about an iterative process.
type Stats struct {
	// Iterations is the number of
	// iterations performed by Method.
	Iterations int

	// MatVec is the number of MatVec and
	// MatTransVec operations commanded
	// by Method.
	MatVec int

	// PSolve is the number of PSolve and
	// PSolveTrans operations commanded
	// by Method.
	PSolve int

	// ResidualNorm is the norm of the
	// final residual.
	ResidualNorm float64

	// StartTime is an approximate time
	// when the solve was started.
	StartTime time.Time

	// Runtime is an approximate duration
	// of the solve.
	Runtime time.Duration
}

// ErrIterationLimit is returned when a maximum number of iterations were done
// without converging to a solution.
var ErrIterationLimit = errors.New("iterative: iteration limit reached")

const dlamchE = 1.0 / (1 << 53)

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 2 * dlamchE
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = dim
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}

// LinearSolve solves the system of linear equations
//  A x = b,
// where A is a non-singular square matrix of dimension equal to the length of
// b, using an iterative method.
//
// a describes the matrix A in terms of matrix-vector operations. method is an
// iterative method used for finding an approximate solution of the linear
// system. settings provide means for adjusting parameters of the iterative
// process.
//
// Note that the default tolerance is achievable only for well-conditioned
// systems.
func LinearSolve(a MatrixOps, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	if a.MatVec == nil {
		panic("iterative: nil matrix-vector multiplication")
	}
	if settings.X0 != nil && len(settings.X0) != dim {
		panic("iterative: mismatched length of initial guess")
	}
	if settings.MaxIterations < 0 {
		panic("iterative: negative iteration limit")
	}
	if dim == 0 {
		return Result{Stats: stats}, nil
	}

	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic("iterative: invalid tolerance")
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	bnorm := floats.Norm(b, 2)
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
	}
	if bnorm == 0 {
		// A zero right-hand side is satisfied by any tolerance. Leave
		// the initial guess untouched and report a zero residual.
		stats.Runtime = time.Since(stats.StartTime)
		return Result{X: ctx.X, Stats: stats}, nil
	}
	if settings.X0 != nil {
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	stats.ResidualNorm = ctx.ResidualNorm
	var err error
	if ctx.ResidualNorm >= settings.Tolerance*bnorm {
		err = iterate(a, b, bnorm, ctx, settings, method, &stats)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{X: ctx.X, Stats: stats}, err
}

func iterate(a MatrixOps, b []float64, bnorm float64, ctx *Context, settings Settings, method Method, stats *Stats) error {
	dim := len(ctx.X)
	method.Init(dim)

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}
		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual)

		case MatVec, MatTransVec:
			switch op {
			case MatVec:
				a.MatVec(ctx.Dst, ctx.Src)
			case MatTransVec:
				a.MatTransVec(ctx.Dst, ctx.Src)
			}
			stats.MatVec++

		case PSolve, PSolveTrans:
			var psolve func(dst, rhs []float64) error
			switch op {
			case PSolve:
				psolve = settings.PSolve
			case PSolveTrans:
				psolve = settings.PSolveTrans
			}
			if psolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			err = psolve(ctx.Dst, ctx.Src)
			if err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance
			stats.ResidualNorm = ctx.ResidualNorm

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if ctx.Converged {
				return nil
			}
			if stats.Iterations == settings.MaxIterations {
				return ErrIterationLimit
			}

		default:
			panic("iterate: invalid operation")
		}
	}
}
