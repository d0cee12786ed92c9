// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package faidx

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kortschak/hnsm/bgzf"
)

// byteTeller reads one byte at a time and reports the offset that byte
// was read from. Offsets must be exact at every call so that they can
// later be fed back to bgzf.Reader.Seek or a plain io.Seeker; this
// rules out wrapping a second, opaque buffering layer (such as
// bufio.Reader.ReadBytes) on top of an offset-tracking reader, since
// that layer's internal prefetch would make Tell() run ahead of the
// logical read position.
type byteTeller interface {
	ReadByte() (byte, error)
	Tell() uint64
}

// plainTeller implements byteTeller over a plain (non-BGZF) stream,
// buffering reads from the OS for performance while still reporting
// an exact running byte offset, since each ReadByte call advances the
// counter by exactly one regardless of how much the inner bufio.Reader
// prefetched from the underlying file.
type plainTeller struct {
	br *bufio.Reader
	n  uint64
}

func (t *plainTeller) ReadByte() (byte, error) {
	b, err := t.br.ReadByte()
	if err == nil {
		t.n++
	}
	return b, err
}

func (t *plainTeller) Tell() uint64 { return t.n }

// bgzfTeller implements byteTeller over a *bgzf.Reader, reporting true
// BGZF virtual offsets. It reads a single byte at a time: the
// underlying Reader already decodes a full block per fillBlock call
// and caches it, so this costs only a function call per byte, not
// per-byte I/O.
type bgzfTeller struct {
	r   *bgzf.Reader
	one [1]byte
}

func (t *bgzfTeller) ReadByte() (byte, error) {
	n, err := t.r.Read(t.one[:])
	if n == 1 {
		return t.one[0], nil
	}
	return 0, err
}

func (t *bgzfTeller) Tell() uint64 { return t.r.Tell() }

// Build scans r, a FASTA stream, once from the start and constructs an
// Index. If r is a *bgzf.Reader, offsets recorded in the index are
// BGZF virtual offsets and Index.IsBGZF reports true; otherwise plain
// byte offsets are used.
//
// Build enforces the faidx line-width invariant: every interior
// sequence line of a record must share the same number of bases and
// the same terminated width as every other interior line of that
// record; only the final line may be shorter. Violations are reported
// as ErrInconsistentLineWidth. Duplicate record names are reported as
// ErrDuplicateName.
func Build(r io.Reader) (*Index, error) {
	var bt byteTeller
	isBGZF := false
	if bg, ok := r.(*bgzf.Reader); ok {
		bt = &bgzfTeller{r: bg}
		isBGZF = true
	} else {
		bt = &plainTeller{br: bufio.NewReaderSize(r, 64*1024)}
	}

	ix := &Index{entries: make(map[string]Entry), bgzf: isBGZF}

	headerOffset, line, err := readLine(bt)
	for err == nil {
		if len(line) == 0 {
			headerOffset, line, err = readLine(bt)
			continue
		}
		if line[0] != '>' {
			return nil, fmt.Errorf("faidx: expected '>' header, got %q", line)
		}
		name, _ := splitHeader(line[1:])
		if _, dup := ix.entries[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}

		var seqLen int64
		lineBases, lineWidth := -1, -1
		finalSeen := false
		var seqOffset uint64
		first := true

		var lineOffset uint64
		var l []byte
		for {
			lineOffset, l, err = readLine(bt)
			if first {
				seqOffset = lineOffset
				first = false
			}
			if err != nil && err != io.EOF {
				return nil, err
			}
			if len(l) > 0 && l[0] == '>' {
				break
			}
			n := len(l)
			if n == 0 {
				if err == io.EOF {
					break
				}
				continue
			}
			width := int(bt.Tell() - lineOffset)
			if lineBases == -1 {
				lineBases = n
				lineWidth = width
			} else if finalSeen {
				return nil, fmt.Errorf("%w: record %q has data after a short line", ErrInconsistentLineWidth, name)
			} else if n != lineBases {
				if n > lineBases {
					return nil, fmt.Errorf("%w: record %q", ErrInconsistentLineWidth, name)
				}
				finalSeen = true
			} else if width != lineWidth {
				return nil, fmt.Errorf("%w: record %q", ErrInconsistentLineWidth, name)
			}
			seqLen += int64(n)
			if err == io.EOF {
				break
			}
		}
		if lineBases == -1 {
			lineBases, lineWidth = 0, 0
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

		headerOffset, line = lineOffset, l
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return ix, nil
}

// readLine reads one '\n'-terminated (or final unterminated) line from
// bt, stripping the terminator, and returns the offset of the first
// byte of the line.
func readLine(bt byteTeller) (offset uint64, line []byte, err error) {
	offset = bt.Tell()
	var buf []byte
	for {
		b, e := bt.ReadByte()
		if e != nil {
			if e == io.EOF {
				return offset, trimCR(buf), io.EOF
			}
			return offset, nil, e
		}
		if b == '\n' {
			return offset, trimCR(buf), nil
		}
		buf = append(buf, b)
	}
}

func trimCR(buf []byte) []byte {
	if n := len(buf); n > 0 && buf[n-1] == '\r' {
		return buf[:n-1]
	}
	return buf
}

func splitHeader(b []byte) (name, desc string) {
	i := -1
	for j, c := range b {
		if c == ' ' || c == '\t' {
			i = j
			break
		}
	}
	if i < 0 {
		return string(b), ""
	}
	return string(b[:i]), string(b[i+1:])
}
