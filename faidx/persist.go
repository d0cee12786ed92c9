// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package faidx

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTo writes ix as a TSV .loc index: one line per record,
// name\tseq_length\tseq_offset\tline_bases\tline_width\theader_offset,
// in first-seen (insertion) order. The header_offset column is an
// hnsm extension beyond the minimal five-column samtools-compatible
// layout; Load accepts either five or six columns.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, name := range ix.order {
		e := ix.entries[name]
		n, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			e.Name, e.SeqLength, e.SeqOffset, e.LineBases, e.LineWidth, e.HeaderOffset)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// Load reads a .loc index previously produced by WriteTo (or a
// minimal five-column samtools-style .fai). The bgzf flag must match
// how the offsets were recorded when the index was built, since Load
// has no way to recover that from the TSV alone.
func Load(r io.Reader, bgzf bool) (*Index, error) {
	ix := &Index{entries: make(map[string]Entry), bgzf: bgzf}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 && len(fields) != 6 {
			return nil, fmt.Errorf("%w: line %d: want 5 or 6 columns, got %d", ErrBadIndexFormat, lineNo, len(fields))
		}
		name := fields[0]
		if _, dup := ix.entries[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seqLen, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadIndexFormat, lineNo, err)
		}
		seqOffset, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadIndexFormat, lineNo, err)
		}
		lineBases, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadIndexFormat, lineNo, err)
		}
		lineWidth, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadIndexFormat, lineNo, err)
		}
		var headerOffset uint64
		if len(fields) == 6 {
			headerOffset, err = strconv.ParseUint(fields[5], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBadIndexFormat, lineNo, err)
			}
		}
		ix.entries[name] = Entry{
			Name:         name,
			SeqLength:    seqLen,
			HeaderOffset: headerOffset,
			SeqOffset:    seqOffset,
			LineBases:    lineBases,
			LineWidth:    lineWidth,
		}
		ix.order = append(ix.order, name)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ix, nil
}
