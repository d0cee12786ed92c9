// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vecsim

import (
	"math"
	"testing"
)

func TestEuclidIdenticalVectors(t *testing.T) {
	x := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	sim, err := Euclid(x, x)
	if err != nil {
		t.Fatalf("Euclid: %v", err)
	}
	if sim != 1 {
		t.Errorf("Euclid(x, x) = %v, want 1", sim)
	}
	if d := EuclidDistance(x, x); d != 0 {
		t.Errorf("EuclidDistance(x, x) = %v, want 0", d)
	}
}

func TestEuclidDimensionMismatch(t *testing.T) {
	_, err := Euclid([]float32{1, 2}, []float32{1, 2, 3})
	if err != ErrDimensionMismatch {
		t.Errorf("Euclid dimension mismatch err = %v, want ErrDimensionMismatch", err)
	}
	_, err = Cosine([]float32{1, 2}, []float32{1, 2, 3})
	if err != ErrDimensionMismatch {
		t.Errorf("Cosine dimension mismatch err = %v, want ErrDimensionMismatch", err)
	}
}

func TestCosineOrthogonalAndParallel(t *testing.T) {
	x := []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	y := []float32{0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	sim, err := Cosine(x, y)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if math.Abs(sim) > 1e-12 {
		t.Errorf("Cosine(orthogonal) = %v, want 0", sim)
	}

	z := []float32{2, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	sim2, err := Cosine(x, z)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if math.Abs(sim2-1) > 1e-9 {
		t.Errorf("Cosine(parallel) = %v, want 1", sim2)
	}
}

func TestCosineZeroVector(t *testing.T) {
	x := make([]float32, 16)
	y := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	sim, err := Cosine(x, y)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if sim != 0 {
		t.Errorf("Cosine(zero vector, y) = %v, want 0", sim)
	}
}

func TestJaccardBits(t *testing.T) {
	x := []uint64{0b1111}
	y := []uint64{0b0110}
	j, err := JaccardBits(x, y)
	if err != nil {
		t.Fatalf("JaccardBits: %v", err)
	}
	want := 2.0 / 4.0
	if j != want {
		t.Errorf("JaccardBits = %v, want %v", j, want)
	}
}

func TestJaccardBitsDimensionMismatch(t *testing.T) {
	_, err := JaccardBits([]uint64{1}, []uint64{1, 2})
	if err != ErrDimensionMismatch {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestPackBinaryRoundTripsThroughJaccard(t *testing.T) {
	a := make([]float32, 130)
	b := make([]float32, 130)
	for i := range a {
		if i%3 == 0 {
			a[i] = 1
		}
		if i%5 == 0 {
			b[i] = 1
		}
	}
	pa := PackBinary(a)
	pb := PackBinary(b)
	j, err := JaccardBits(pa, pb)
	if err != nil {
		t.Fatalf("JaccardBits: %v", err)
	}
	if j <= 0 || j >= 1 {
		t.Errorf("JaccardBits over mixed vectors = %v, want strictly between 0 and 1", j)
	}
}

func TestCheckFinite(t *testing.T) {
	if err := CheckFinite([]float32{1, 2, 3}); err != nil {
		t.Errorf("CheckFinite(finite) = %v, want nil", err)
	}
	if err := CheckFinite([]float32{1, float32(math.NaN())}); err != ErrNonFinite {
		t.Errorf("CheckFinite(NaN) = %v, want ErrNonFinite", err)
	}
	if err := CheckFinite([]float32{float32(math.Inf(1))}); err != ErrNonFinite {
		t.Errorf("CheckFinite(+Inf) = %v, want ErrNonFinite", err)
	}
}
