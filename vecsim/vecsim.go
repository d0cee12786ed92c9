// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vecsim computes Euclidean, cosine and bit-Jaccard similarity
// over dense real or packed-binary feature vectors, with SIMD-flavoured
// fixed-lane kernels and a parallel all-pairs/threshold engine.
package vecsim

import (
	"errors"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when two vectors being compared
// have different lengths (spec §7 BadVectorDimension).
var ErrDimensionMismatch = errors.New("vecsim: dimension mismatch")

// ErrNonFinite is returned when a vector contains a NaN or infinite
// value (spec §7 NonFiniteFloat).
var ErrNonFinite = errors.New("vecsim: non-finite value")

// Vector is a named dense real feature vector.
type Vector struct {
	Name   string
	Values []float32
}

// BinVector is a named feature vector packed into 64-bit words, one
// bit per dimension, for Jaccard similarity (spec §4.6 --bin mode).
type BinVector struct {
	Name  string
	Words []uint64
	Dim   int
}

// lane is the SIMD-flavoured accumulator width: kernels sum lane
// partial results independently before a final scalar reduction, the
// way an 8-wide f32 SIMD register would, while remaining pure Go
// (spec §4.6, §9 — no intrinsics package exists anywhere in the
// example corpus this was grounded on).
const lane = 8

// sqDiffSum returns Σ(x[i]-y[i])² using lane-width partial
// accumulators with a scalar remainder tail.
func sqDiffSum(x, y []float32) float64 {
	var acc [lane]float64
	n := len(x)
	i := 0
	for ; i+lane <= n; i += lane {
		for l := 0; l < lane; l++ {
			d := float64(x[i+l]) - float64(y[i+l])
			acc[l] += d * d
		}
	}
	var diffs []float64
	for ; i < n; i++ {
		diffs = append(diffs, float64(x[i])-float64(y[i]))
	}
	sum := floats.Sum(acc[:])
	for _, d := range diffs {
		sum += d * d
	}
	return sum
}

// dotAndNorms returns x·y, ‖x‖² and ‖y‖² in a single lane-width pass.
func dotAndNorms(x, y []float32) (dot, nx, ny float64) {
	var dotAcc, nxAcc, nyAcc [lane]float64
	n := len(x)
	i := 0
	for ; i+lane <= n; i += lane {
		for l := 0; l < lane; l++ {
			xf, yf := float64(x[i+l]), float64(y[i+l])
			dotAcc[l] += xf * yf
			nxAcc[l] += xf * xf
			nyAcc[l] += yf * yf
		}
	}
	dot = floats.Sum(dotAcc[:])
	nx = floats.Sum(nxAcc[:])
	ny = floats.Sum(nyAcc[:])
	for ; i < n; i++ {
		xf, yf := float64(x[i]), float64(y[i])
		dot += xf * yf
		nx += xf * xf
		ny += yf * yf
	}
	return dot, nx, ny
}

// Euclid returns the similarity 1/(1+√Σ(xi-yi)²) between x and y
// (spec §4.6).
func Euclid(x, y []float32) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrDimensionMismatch
	}
	d := EuclidDistance(x, y)
	return 1 / (1 + d), nil
}

// EuclidDistance returns the raw Euclidean distance √Σ(xi-yi)² between
// x and y, used when the engine runs in --dis mode.
func EuclidDistance(x, y []float32) float64 {
	return math.Sqrt(sqDiffSum(x, y))
}

// Cosine returns the cosine similarity (x·y)/(‖x‖‖y‖) between x and y.
func Cosine(x, y []float32) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrDimensionMismatch
	}
	dot, nx, ny := dotAndNorms(x, y)
	if nx == 0 || ny == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(nx) * math.Sqrt(ny)), nil
}

// JaccardBits returns popcnt(x&y)/popcnt(x|y) over two bit-packed
// vectors (spec §4.6 --bin mode).
func JaccardBits(x, y []uint64) (float64, error) {
	if len(x) != len(y) {
		return 0, ErrDimensionMismatch
	}
	var and, or int
	for i := range x {
		and += bits.OnesCount64(x[i] & y[i])
		or += bits.OnesCount64(x[i] | y[i])
	}
	if or == 0 {
		return 0, nil
	}
	return float64(and) / float64(or), nil
}

// PackBinary thresholds values (!=0 -> 1) and packs them into 64-bit
// words, the representation JaccardBits and BinVector operate on.
func PackBinary(values []float32) []uint64 {
	words := make([]uint64, (len(values)+63)/64)
	for i, v := range values {
		if v != 0 {
			words[i/64] |= 1 << uint(i%64)
		}
	}
	return words
}

// CheckFinite reports ErrNonFinite if values contains a NaN or
// infinite entry.
func CheckFinite(values []float32) error {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ErrNonFinite
		}
	}
	return nil
}
