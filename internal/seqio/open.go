// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seqio

import (
	"errors"
	"io"
	"os"

	"github.com/kortschak/hnsm/bgzf"
)

// Open opens path for sequential FASTA reading, transparently handling
// plain, gzip and BGZF framing. The literal name "stdin" reads from
// os.Stdin, matching the CLI's input convention (spec §6).
func Open(path string) (io.ReadCloser, error) {
	var f *os.File
	var err error
	if path == "stdin" {
		f = os.Stdin
	} else {
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
	}
	r, err := bgzf.NewReader(f)
	if err != nil {
		if f != os.Stdin {
			f.Close()
		}
		return nil, err
	}
	return &readCloser{r: r, f: f}, nil
}

// readCloser pairs a bgzf.Reader with the underlying file so both are
// closed together.
type readCloser struct {
	r *bgzf.Reader
	f *os.File
}

func (c *readCloser) Read(p []byte) (int, error) { return c.r.Read(p) }

// Close closes the bgzf.Reader and the underlying file. bgzf.Reader's
// Close already closes the file when true BGZF random access was in
// play; the second close here is then a harmless no-op reporting
// os.ErrClosed, which is swallowed.
func (c *readCloser) Close() error {
	err := c.r.Close()
	if c.f != os.Stdin {
		if ferr := c.f.Close(); err == nil && !errors.Is(ferr, os.ErrClosed) {
			err = ferr
		}
	}
	return err
}
