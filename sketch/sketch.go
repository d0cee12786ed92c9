// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sketch computes minimizer-based sketches of DNA and protein
// sequences: classical (w,k)-minimizers and scaled (ModHash /
// FracMinHash-style) sketches, over a choice of 64-bit hash functions.
package sketch

import "sort"

// Alphabet selects how k-mers are hashed.
type Alphabet int

const (
	// DNA hashes the canonical (min of forward/reverse-complement)
	// 2-bit-packed k-mer.
	DNA Alphabet = iota
	// Protein hashes the literal k-mer bytes.
	Protein
)

// Hasher selects the 64-bit hash function used to score k-mers.
type Hasher int

const (
	// Rapid is the default hasher, modelled after rapidhash.
	Rapid Hasher = iota
	// Murmur3 is MurmurHash3's 64-bit finalizer variant, offered for
	// benchmarking against Rapid.
	Murmur3
	// Fx is an FxHash-style fast hash, offered for benchmarking.
	Fx
)

// Mode selects between classical (w,k)-minimizers and a scaled
// (ModHash) sketch.
type Mode int

const (
	// WindowMinimizer emits the smallest canonical hash in every
	// window of W consecutive k-mers.
	WindowMinimizer Mode = iota
	// ModHash emits every k-mer whose hash is congruent to 0 modulo W.
	ModHash
)

// Params bundles the sketching parameters for a run. K is the k-mer
// length; W is the minimizer window size (WindowMinimizer) or the
// scale factor (ModHash, where W=1 keeps every k-mer).
type Params struct {
	K        int
	W        int
	Alphabet Alphabet
	Hasher   Hasher
	Mode     Mode
}

// hashFunc is implemented by each Hasher variant operating on a packed
// k-mer value.
type hashFunc func(uint64) uint64

// Sketch computes the minimizer (or ModHash) set of seq under p,
// returning a sorted, deduplicated slice of 64-bit hash values — a set
// per the spec's invariant that duplicate hash values collapse and
// order is not semantically significant (sorting here only gives a
// canonical, diffable and two-pointer-intersectable representation).
func Sketch(seq []byte, p Params) []uint64 {
	var hashes []uint64
	if p.Alphabet == DNA {
		hashes = sketchDNA(seq, p)
	} else {
		hashes = sketchProtein(seq, p)
	}
	return dedupeSorted(hashes)
}

// MergeSketches returns the union of several sketches as a single
// sorted, deduplicated set, used by the distance engine's --merge
// (file-level union sketch) mode.
func MergeSketches(sets ...[]uint64) []uint64 {
	var n int
	for _, s := range sets {
		n += len(s)
	}
	all := make([]uint64, 0, n)
	for _, s := range sets {
		all = append(all, s...)
	}
	return dedupeSorted(all)
}

func dedupeSorted(hashes []uint64) []uint64 {
	if len(hashes) == 0 {
		return hashes
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	out := hashes[:1]
	for _, h := range hashes[1:] {
		if h != out[len(out)-1] {
			out = append(out, h)
		}
	}
	return out
}
