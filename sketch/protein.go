// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

// sketchProtein computes a literal (non-canonical) k-mer sketch of seq
// under p. Protein sequences have no reverse-complement symmetry, so
// each k-mer is hashed directly from its byte representation rather
// than packed into an integer.
func sketchProtein(seq []byte, p Params) []uint64 {
	k := p.K
	if k <= 0 || len(seq) < k {
		return nil
	}
	hf := p.byteHasher()

	var hashes []uint64

	if p.Mode == ModHash {
		for i := 0; i+k <= len(seq); i++ {
			h := hf(seq[i : i+k])
			if modHashKeep(h, p.W) {
				hashes = append(hashes, h)
			}
		}
		return hashes
	}

	// WindowMinimizer: slide a window of W consecutive k-mers and
	// report the minimum hash once per window, using the same
	// monotonic-deque approach as the DNA path.
	w := p.W
	if w < 1 {
		w = 1
	}
	type cand struct {
		hash uint64
		pos  int
	}
	deque := make([]cand, 0, w)
	lastEmittedPos := -1

	nkmers := len(seq) - k + 1
	for pos := 0; pos < nkmers; pos++ {
		h := hf(seq[pos : pos+k])
		for len(deque) > 0 && deque[len(deque)-1].hash > h {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, cand{hash: h, pos: pos})
		for len(deque) > 0 && deque[0].pos <= pos-w {
			deque = deque[1:]
		}
		if pos >= w-1 {
			top := deque[0]
			if top.pos != lastEmittedPos {
				hashes = append(hashes, top.hash)
				lastEmittedPos = top.pos
			}
		}
	}
	return hashes
}
