// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqcache

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Result is one resolved range query, carrying any per-query error so
// that a batch can continue past a single bad query (spec §7).
type Result struct {
	Query  Query
	Header string
	Seq    []byte
	Err    error
}

// ExtractMany resolves qs in input order, streaming results on the
// returned channel in the same order they were requested.
func (e *Extractor) ExtractMany(qs []Query) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for _, q := range qs {
			header, seq, err := e.Extract(q)
			out <- Result{Query: q, Header: header, Seq: seq, Err: err}
		}
	}()
	return out
}

// ExtractBatch reads a "name\trange" TSV from r and streams results in
// file order. Each line holds one query: either a single column with a
// name or a full range expression, or a name followed by a START-END
// column and an optional third column giving the strand (+ or -).
func (e *Extractor) ExtractBatch(r io.Reader) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Split(line, "\t")
			name := fields[0]
			strand := byte(0)
			if len(fields) >= 3 && (fields[2] == "+" || fields[2] == "-") {
				strand = fields[2][0]
			}
			var expr string
			switch {
			case len(fields) < 2 || fields[1] == "":
				expr = name
			case strand != 0:
				expr = fmt.Sprintf("%s(%c):%s", name, strand, fields[1])
			default:
				expr = name + ":" + fields[1]
			}
			q, err := ParseRange(expr)
			if err != nil {
				out <- Result{Err: err}
				continue
			}
			header, seq, err := e.Extract(q)
			out <- Result{Query: q, Header: header, Seq: seq, Err: err}
		}
		if err := sc.Err(); err != nil {
			out <- Result{Err: fmt.Errorf("seqcache: batch read: %w", err)}
		}
	}()
	return out
}
