// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqcache

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/kortschak/hnsm/bgzf"
	"github.com/kortschak/hnsm/faidx"
)

// complement maps a base to its complement, case-preserving, covering
// the IUPAC ambiguity codes named in the spec.
var complement = map[byte]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C', 'U': 'A',
	'R': 'Y', 'Y': 'R', 'K': 'M', 'M': 'K', 'S': 'S', 'W': 'W',
	'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D', 'N': 'N',
	'a': 't', 't': 'a', 'c': 'g', 'g': 'c', 'u': 'a',
	'r': 'y', 'y': 'r', 'k': 'm', 'm': 'k', 's': 's', 'w': 'w',
	'b': 'v', 'v': 'b', 'd': 'h', 'h': 'd', 'n': 'n',
}

// ReverseComplement returns the reverse complement of seq, applied
// last, after any range slicing, as specified.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		c, ok := complement[b]
		if !ok {
			c = b
		}
		out[len(seq)-1-i] = c
	}
	return out
}

// Extractor resolves range queries against an indexed FASTA file,
// caching whole decoded sequences in an LRU to amortize repeated
// intra-contig queries.
type Extractor struct {
	idx  *faidx.Index
	path string
	bg   *bgzf.Reader // non-nil when idx.IsBGZF()
	f    *os.File     // non-nil when !idx.IsBGZF(), opened once and seeked per cache miss
	lru  *LRU
}

// NewExtractor returns an Extractor over the FASTA file at path using
// idx, caching up to cacheSize whole sequences.
func NewExtractor(path string, idx *faidx.Index, cacheSize int) (*Extractor, error) {
	e := &Extractor{idx: idx, path: path, lru: NewLRU(cacheSize)}
	if idx.IsBGZF() {
		bg, err := bgzf.Open(path)
		if err != nil {
			return nil, err
		}
		if !bg.IsRandomAccess() {
			return nil, fmt.Errorf("seqcache: %s: %w", path, bgzf.ErrSeekUnsupported)
		}
		e.bg = bg
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		e.f = f
	}
	return e, nil
}

// Close releases the underlying file handle.
func (e *Extractor) Close() error {
	if e.bg != nil {
		return e.bg.Close()
	}
	if e.f != nil {
		return e.f.Close()
	}
	return nil
}

// Extract resolves q against the index, returning a FASTA header line
// (without the leading '>') and the selected, strand-adjusted bytes.
func (e *Extractor) Extract(q Query) (header string, seq []byte, err error) {
	ent, ok := e.idx.Lookup(q.Name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrNameNotFound, q.Name)
	}
	start, end := q.Start, q.End
	if q.Whole {
		start, end = 1, ent.SeqLength
	}
	if start < 1 || start > end || end > ent.SeqLength {
		return "", nil, fmt.Errorf("%w: %s: valid range is 1-%d", ErrBadRange, q.Name, ent.SeqLength)
	}

	full, err := e.materialize(ent)
	if err != nil {
		return "", nil, err
	}

	out := full[start-1 : end]
	if q.Strand == '-' {
		out = ReverseComplement(out)
	}
	header = fmt.Sprintf("%s:%d-%d", q.Name, start, end)
	if q.Whole {
		header = q.Name
	}
	return header, out, nil
}

// materialize returns the full decoded sequence for ent, consulting
// and populating the LRU cache.
func (e *Extractor) materialize(ent faidx.Entry) ([]byte, error) {
	if seq, ok := e.lru.Get(ent.Name); ok {
		return seq, nil
	}

	var r io.Reader
	if e.bg != nil {
		if err := e.bg.Seek(bgzf.VirtualOffset(ent.SeqOffset)); err != nil {
			return nil, err
		}
		r = e.bg
	} else {
		if _, err := e.f.Seek(int64(ent.SeqOffset), io.SeekStart); err != nil {
			return nil, err
		}
		r = e.f
	}

	seq := make([]byte, 0, ent.SeqLength)
	if ent.LineBases <= 0 {
		// Zero-length record: nothing to read.
		e.lru.Add(ent.Name, seq)
		return seq, nil
	}

	br := bufio.NewReaderSize(r, ent.LineWidth+2)
	remaining := ent.SeqLength
	full := make([]byte, ent.LineWidth)
	for remaining > 0 {
		if remaining >= int64(ent.LineBases) {
			if _, err := io.ReadFull(br, full); err != nil {
				return nil, err
			}
			seq = append(seq, full[:ent.LineBases]...)
			remaining -= int64(ent.LineBases)
			continue
		}
		// Final, possibly short, line: read exactly the bases that
		// remain, ignoring any terminator that may or may not follow.
		tail := make([]byte, remaining)
		if _, err := io.ReadFull(br, tail); err != nil {
			return nil, err
		}
		seq = append(seq, tail...)
		remaining = 0
	}

	e.lru.Add(ent.Name, seq)
	return seq, nil
}
