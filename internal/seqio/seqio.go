// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seqio provides a minimal FASTA record scanner shared by the
// sketching, distance and similarity engines. It deliberately does not
// track byte offsets — faidx needs exact header/sequence/line-width
// bookkeeping (including BGZF virtual offsets) and implements its own
// lower-level scan for that; seqio exists for the simpler, offset-free
// consumers that only want successive (name, description, sequence)
// records, mirroring the seqio.Scanner/fasta.Reader split already
// present in biogo/biogo.
package seqio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// Record is a single FASTA record: a name, an optional description and
// the concatenated, terminator-stripped sequence bytes.
type Record struct {
	Name string
	Desc string
	Seq  []byte
}

// ToLinearSeq converts r into a biogo/biogo linear.Seq under the given
// alphabet, for interoperability with tools built on biogo.
func (r Record) ToLinearSeq(alpha alphabet.Alphabet) *linear.Seq {
	s := linear.NewSeq(r.Name, alphabet.BytesToLetters(r.Seq), alpha)
	s.Desc = r.Desc
	return s
}

// Scanner reads successive FASTA records from an underlying reader.
type Scanner struct {
	br      *bufio.Reader
	rec     Record
	err     error
	pending []byte
	done    bool
}

// NewScanner returns a Scanner reading FASTA records from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next advances the scanner to the next record, returning false at EOF
// or on error; callers must check Err after Next returns false.
func (s *Scanner) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	var header []byte
	if s.pending != nil {
		header, s.pending = s.pending, nil
	} else {
		line, err := readLine(s.br)
		if err != nil {
			if err == io.EOF {
				s.done = true
				return false
			}
			s.err = err
			return false
		}
		if len(line) == 0 || line[0] != '>' {
			s.err = fmt.Errorf("seqio: expected fasta header, got %q", line)
			return false
		}
		header = line
	}

	name, desc := splitHeader(header[1:])
	var seq []byte
	for {
		line, err := readLine(s.br)
		if err != nil {
			if err == io.EOF {
				s.done = true
				break
			}
			s.err = err
			return false
		}
		if len(line) > 0 && line[0] == '>' {
			s.pending = line
			break
		}
		seq = append(seq, line...)
	}
	s.rec = Record{Name: name, Desc: desc, Seq: seq}
	return true
}

// Seq returns the record produced by the most recent call to Next.
func (s *Scanner) Seq() Record { return s.rec }

// Err returns the first non-EOF error encountered by the scanner.
func (s *Scanner) Err() error { return s.err }

func readLine(br *bufio.Reader) ([]byte, error) {
	raw, err := br.ReadBytes('\n')
	if len(raw) == 0 {
		return nil, err
	}
	if raw[len(raw)-1] == '\n' {
		raw = raw[:len(raw)-1]
		if len(raw) > 0 && raw[len(raw)-1] == '\r' {
			raw = raw[:len(raw)-1]
		}
	}
	if err == io.EOF {
		return raw, nil
	}
	return raw, err
}

func splitHeader(b []byte) (name, desc string) {
	i := bytes.IndexAny(b, " \t")
	if i < 0 {
		return string(b), ""
	}
	return string(b[:i]), string(bytes.TrimLeft(b[i+1:], " \t"))
}
