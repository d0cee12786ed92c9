// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package faidx implements an index over FASTA files — plain or
// BGZF-compressed — that maps a record name to its offset and line
// layout, mirroring the samtools faidx data model (.fai) extended to
// carry BGZF virtual offsets.
package faidx

import (
	"errors"
	"strings"

	"github.com/biogo/store/llrb"
)

// Errors returned by this package.
var (
	ErrDuplicateName        = errors.New("faidx: duplicate sequence name")
	ErrInconsistentLineWidth = errors.New("faidx: inconsistent line width")
	ErrBadIndexFormat       = errors.New("faidx: malformed index line")
)

// Entry is one record's location and line layout.
type Entry struct {
	Name         string
	SeqLength    int64
	HeaderOffset uint64
	SeqOffset    uint64
	LineBases    int
	LineWidth    int
}

// Index is an immutable name -> Entry mapping built from a single
// forward scan of a FASTA file.
type Index struct {
	order   []string
	entries map[string]Entry
	bgzf    bool
	tree    *llrb.Tree // built lazily by Ordered
}

// IsBGZF reports whether this index's offsets are BGZF virtual offsets
// (true) or plain byte offsets (false).
func (ix *Index) IsBGZF() bool { return ix.bgzf }

// Lookup returns the entry for name and whether it was found.
func (ix *Index) Lookup(name string) (Entry, bool) {
	e, ok := ix.entries[name]
	return e, ok
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.order) }

// Names returns record names in first-seen (insertion) order.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// nameKey adapts a string into an llrb.Comparable for ordered iteration.
type nameKey string

func (a nameKey) Compare(b llrb.Comparable) int {
	return strings.Compare(string(a), string(b.(nameKey)))
}

// Ordered returns record names in lexical order, backed by a
// left-leaning red-black tree built (and cached) on first use, giving
// O(log N) insertion cost amortized across repeated calls and O(N)
// in-order traversal, satisfying the ordered-iteration half of the
// faidx contract without re-sorting on every call.
func (ix *Index) Ordered() []string {
	if ix.tree == nil {
		t := &llrb.Tree{}
		for _, n := range ix.order {
			t.Insert(nameKey(n))
		}
		ix.tree = t
	}
	out := make([]string, 0, len(ix.order))
	ix.tree.Do(func(c llrb.Comparable) (done bool) {
		out = append(out, string(c.(nameKey)))
		return false
	})
	return out
}
