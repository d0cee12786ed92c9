// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seqcache implements range-query extraction from an indexed
// FASTA file, backed by a bounded LRU cache of whole decoded sequences
// sized for the bacterial/metagenomic workload where a contig is small
// enough that caching the whole sequence beats faidx's usual
// line-granularity seeking for repeated intra-contig queries.
package seqcache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by this package.
var (
	ErrBadRange     = errors.New("seqcache: bad range")
	ErrNameNotFound = errors.New("seqcache: name not found")
)

// Query is a parsed range expression: NAME | NAME:START-END |
// NAME(+):START-END | NAME(-):START-END, with 1-based inclusive
// coordinates. Whole specifies that no :start-end was given.
type Query struct {
	Name   string
	Strand byte // '+' or '-'
	Start  int64
	End    int64
	Whole  bool
}

// ParseRange parses a range expression of the form described by the
// Query type.
func ParseRange(s string) (Query, error) {
	q := Query{Strand: '+'}
	name := s
	var coordPart string
	hasCoords := false

	if i := strings.IndexByte(s, ':'); i >= 0 {
		name = s[:i]
		coordPart = s[i+1:]
		hasCoords = true
	}

	if strings.HasSuffix(name, ")") {
		open := strings.LastIndexByte(name, '(')
		if open < 0 || open != len(name)-3 {
			return Query{}, fmt.Errorf("%w: %q: malformed strand annotation", ErrBadRange, s)
		}
		switch name[open+1] {
		case '+', '-':
			q.Strand = name[open+1]
		default:
			return Query{}, fmt.Errorf("%w: %q: strand must be + or -", ErrBadRange, s)
		}
		name = name[:open]
	} else if strings.LastIndexByte(name, '(') > strings.LastIndexByte(name, ')') {
		return Query{}, fmt.Errorf("%w: %q: malformed strand annotation", ErrBadRange, s)
	}
	if name == "" {
		return Query{}, fmt.Errorf("%w: %q: missing name", ErrBadRange, s)
	}
	q.Name = name

	if !hasCoords {
		q.Whole = true
		return q, nil
	}

	dash := strings.IndexByte(coordPart, '-')
	if dash <= 0 || dash == len(coordPart)-1 {
		return Query{}, fmt.Errorf("%w: %q: malformed start-end", ErrBadRange, s)
	}
	start, err := strconv.ParseInt(coordPart[:dash], 10, 64)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
	}
	end, err := strconv.ParseInt(coordPart[dash+1:], 10, 64)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
	}
	if start < 1 || start > end {
		return Query{}, fmt.Errorf("%w: %q: start must be >=1 and <= end", ErrBadRange, s)
	}
	q.Start, q.End = start, end
	return q, nil
}

func (q Query) String() string {
	if q.Whole {
		return q.Name
	}
	return fmt.Sprintf("%s(%c):%d-%d", q.Name, q.Strand, q.Start, q.End)
}
