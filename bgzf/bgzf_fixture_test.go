// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"compress/flate"
	"io"
	"io/ioutil"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

// roundTrip writes data through a Writer at the given level and
// decodes it back through a Reader, mirroring the BGZF fixture tests
// in biogo/hts/bgzf/index_test.go.
func roundTrip(c *check.C, data []byte, level int) ([]byte, []BlockOffset) {
	var buf bytes.Buffer
	w := NewWriter(&buf, level)
	_, err := w.Write(data)
	c.Assert(err, check.IsNil)
	c.Assert(w.Close(), check.IsNil)
	index := w.Index()

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	c.Assert(err, check.IsNil)
	got, err := ioutil.ReadAll(r)
	c.Assert(err, check.IsNil)
	return got, index
}

func (s *S) TestRoundTripSmall(c *check.C) {
	data := bytes.Repeat([]byte("ACGTACGTAC"), 100)
	got, _ := roundTrip(c, data, flate.DefaultCompression)
	c.Assert(got, check.DeepEquals, data)
}

func (s *S) TestRoundTripMultiBlock(c *check.C) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 4000)
	c.Assert(len(data) > MaxBlockSize, check.Equals, true)
	got, index := roundTrip(c, data, flate.BestSpeed)
	c.Assert(got, check.DeepEquals, data)
	c.Assert(len(index) > 1, check.Equals, true, check.Commentf("expected multiple blocks for %d bytes", len(data)))
}

func (s *S) TestSeekVirtualOffset(c *check.C) {
	data := bytes.Repeat([]byte("0123456789"), 20000)

	var buf bytes.Buffer
	w := NewWriter(&buf, flate.BestSpeed)
	_, err := w.Write(data)
	c.Assert(err, check.IsNil)
	c.Assert(w.Close(), check.IsNil)

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	c.Assert(err, check.IsNil)
	c.Assert(r.IsRandomAccess(), check.Equals, true)

	// Read half of the first block, note the virtual offset, then seek
	// back to it and confirm the remaining stream matches.
	first := make([]byte, MaxBlockSize/2)
	_, err = io.ReadFull(r, first)
	c.Assert(err, check.IsNil)
	mark := r.VirtualTell()

	rest, err := ioutil.ReadAll(r)
	c.Assert(err, check.IsNil)

	c.Assert(r.Seek(mark), check.IsNil)
	again, err := ioutil.ReadAll(r)
	c.Assert(err, check.IsNil)
	c.Assert(again, check.DeepEquals, rest)
}

func (s *S) TestPlainFallback(c *check.C) {
	data := []byte("not compressed at all\n")
	r, err := NewReader(bytes.NewReader(data))
	c.Assert(err, check.IsNil)
	c.Assert(r.IsRandomAccess(), check.Equals, false)
	got, err := ioutil.ReadAll(r)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, data)
}
