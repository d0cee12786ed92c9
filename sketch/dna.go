// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

// base2bit maps A/C/G/T (and lower-case) to their 2-bit code; any other
// byte (N, IUPAC ambiguity codes, gaps) is not in the map and
// terminates the current k-mer run, matching the spec's requirement
// that an ambiguous base restart the window.
var base2bit = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = 0, 0
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()

// complement2bit complements a 2-bit base code (A<->T, C<->G).
func complement2bit(b uint64) uint64 { return b ^ 3 }

// sketchDNA computes the canonical-k-mer sketch of seq under p.
func sketchDNA(seq []byte, p Params) []uint64 {
	k := p.K
	if k <= 0 || k > 32 || len(seq) < k {
		return nil
	}
	mask := uint64(1)<<(2*uint(k)) - 1
	hf := p.uint64Hasher()

	var hashes []uint64
	var fwd, rev uint64
	run := 0 // count of consecutive valid bases accumulated

	if p.Mode == ModHash {
		for _, b := range seq {
			code := base2bit[b]
			if code < 0 {
				fwd, rev, run = 0, 0, 0
				continue
			}
			fwd = ((fwd << 2) | uint64(code)) & mask
			rev = (rev >> 2) | (complement2bit(uint64(code)) << (2 * uint(k-1)))
			run++
			if run < k {
				continue
			}
			canon := fwd
			if rev < fwd {
				canon = rev
			}
			h := hf(canon)
			if modHashKeep(h, p.W) {
				hashes = append(hashes, h)
			}
		}
		return hashes
	}

	// WindowMinimizer: slide a window of W consecutive k-mers and
	// report the minimum canonical hash once per window, using a
	// monotonic deque so the whole scan is O(L) with O(1) amortized
	// work per k-mer (spec §4.4).
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

	pushAndEmit := func(pos int, h uint64) {
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

	kmerIdx := -1 // index among valid consecutive k-mers in the current run
	for i, b := range seq {
		code := base2bit[b]
		if code < 0 {
			fwd, rev, run = 0, 0, 0
			deque = deque[:0]
			kmerIdx = -1
			lastEmittedPos = -1
			continue
		}
		fwd = ((fwd << 2) | uint64(code)) & mask
		rev = (rev >> 2) | (complement2bit(uint64(code)) << (2 * uint(k-1)))
		run++
		if run < k {
			continue
		}
		kmerIdx++
		canon := fwd
		if rev < fwd {
			canon = rev
		}
		h := hf(canon)
		pushAndEmit(kmerIdx, h)
	}
	return hashes
}

// modHashKeep reports whether hash h belongs to a ModHash sketch with
// scale factor w (w=1 keeps everything).
func modHashKeep(h uint64, w int) bool {
	if w <= 1 {
		return true
	}
	return h%uint64(w) == 0
}
