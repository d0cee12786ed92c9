// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distance computes Jaccard, containment and Mash-style
// distances between minimizer sketches, and a parallel engine for
// running those comparisons over FASTA inputs.
package distance

import (
	"errors"
	"math"
)

// ErrIncompatibleAlphabet is returned when a query and target sketch
// were built over different alphabets (DNA vs protein); mixing them
// produces meaningless intersections.
var ErrIncompatibleAlphabet = errors.New("distance: incompatible alphabet")

// Intersect returns the size of the intersection of two sorted,
// deduplicated hash sets, via a two-pointer linear scan (spec §4.5).
func Intersect(a, b []uint64) int {
	var i, j, n int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Jaccard returns the Jaccard index I/(|a|+|b|-I) of two sketches. An
// empty union is not an error; it yields 0, matching EmptySketch
// semantics (spec §4.5, §7).
func Jaccard(a, b []uint64) float64 {
	i := Intersect(a, b)
	union := len(a) + len(b) - i
	if union == 0 {
		return 0
	}
	j := float64(i) / float64(union)
	// Below the resolution of the sketch (1/union), round down to 0.
	// With a whole-number intersection this only holds when nothing is
	// shared, so a single shared hash is still reported.
	if j < 1/float64(union) {
		return 0
	}
	return j
}

// Containment returns the containment of a in b, I/|a|.
func Containment(a, b []uint64) float64 {
	if len(a) == 0 {
		return 0
	}
	return float64(Intersect(a, b)) / float64(len(a))
}

// Mash returns the Mash-style distance derived from Jaccard index j
// and k-mer size k, clamped to [0,1] (spec §4.5, §9).
func Mash(j float64, k int) float64 {
	if j <= 0 {
		return 1
	}
	if k <= 0 {
		return 1
	}
	d := -math.Log(2*j/(1+j)) / float64(k)
	if d <= 0 {
		// Also turns the negative zero produced at j=1 into 0.
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// Summary bundles the three distance statistics computed from a pair
// of sketches plus the intersection/union sizes needed for
// merged-file output.
type Summary struct {
	SizeA, SizeB int
	Intersection int
	Union        int
	D, J, C      float64
}

// Compare computes a full Summary for sketches a (query) and b
// (target) using k-mer size k.
func Compare(a, b []uint64, k int) Summary {
	i := Intersect(a, b)
	union := len(a) + len(b) - i
	j := Jaccard(a, b)
	return Summary{
		SizeA:        len(a),
		SizeB:        len(b),
		Intersection: i,
		Union:        union,
		D:            Mash(j, k),
		J:            j,
		C:            Containment(a, b),
	}
}
