// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// BlockOffset records the compressed and cumulative uncompressed
// position of the start of one BGZF block, the companion-index
// equivalent of samtools' .gzi.
type BlockOffset struct {
	Compressed   int64
	Uncompressed int64
}

// Writer buffers uncompressed data and flushes it to the underlying
// io.Writer as BGZF blocks no larger than MaxBlockSize, recording a
// block index as it goes so that a caller can build a faidx index
// directly against the data it has just written.
type Writer struct {
	w         io.Writer
	level     int
	buf       []byte
	cOffset   int64 // bytes written to w so far
	uOffset   int64 // uncompressed bytes accepted so far
	index     []BlockOffset
	err       error
	closed    bool
}

// NewWriter returns a Writer using the given DEFLATE compression
// level, one of the flate package's level constants (callers wanting
// the default should pass flate.DefaultCompression, not the zero
// value, which flate treats as NoCompression).
func NewWriter(w io.Writer, level int) *Writer {
	return &Writer{w: w, level: level}
}

// blockPayload is the uncompressed size at which Write flushes a
// block. It is below MaxBlockSize so that a block that does not
// compress, or is written with no compression, still encodes to a
// member of at most 64 KiB including the gzip framing.
const blockPayload = 0xff00

// Write buffers p, flushing full blockPayload-sized blocks as they fill.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n := len(p)
	for len(p) > 0 {
		room := blockPayload - len(w.buf)
		if room > len(p) {
			room = len(p)
		}
		w.buf = append(w.buf, p[:room]...)
		p = p[room:]
		if len(w.buf) == blockPayload {
			if err := w.flushBlock(); err != nil {
				w.err = err
				return n - len(p), err
			}
		}
	}
	return n, nil
}

// flushBlock compresses and writes out the current buffer as a single
// BGZF member, regardless of its size, and records its BlockOffset.
func (w *Writer) flushBlock() error {
	if len(w.buf) == 0 {
		return nil
	}
	block, err := encodeBlock(w.buf, w.level)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(block); err != nil {
		return err
	}
	w.index = append(w.index, BlockOffset{Compressed: w.cOffset, Uncompressed: w.uOffset})
	w.cOffset += int64(len(block))
	w.uOffset += int64(len(w.buf))
	w.buf = w.buf[:0]
	return nil
}

// encodeBlock compresses payload (which must be <= MaxBlockSize) into
// a single well-formed BGZF member, with the BC extra subfield's BSIZE
// set to the total member length minus one.
func encodeBlock(payload []byte, level int) ([]byte, error) {
	var body bytes.Buffer
	fw, err := flate.NewWriter(&body, level)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(payload); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}

	const headerLen = 18 // fixed gzip header (10) + XLEN(2) + BC subfield(6)
	total := headerLen + body.Len() + 8
	if total > 65536 {
		return nil, ErrTruncatedBlock
	}

	var buf bytes.Buffer
	buf.Grow(total)
	buf.Write([]byte{gzipID1, gzipID2, gzipDeflate, flagExtra, 0, 0, 0, 0, 0, 0xff})
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], 6) // XLEN
	buf.Write(u16[:])
	buf.WriteByte('B')
	buf.WriteByte('C')
	binary.LittleEndian.PutUint16(u16[:], 2) // SLEN
	buf.Write(u16[:])
	binary.LittleEndian.PutUint16(u16[:], uint16(total-1)) // BSIZE
	buf.Write(u16[:])
	buf.Write(body.Bytes())

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(payload)))
	buf.Write(trailer[:])

	return buf.Bytes(), nil
}

// Flush forces any buffered data into a BGZF block, even if it is
// smaller than MaxBlockSize.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.flushBlock()
}

// Index returns the block index accumulated so far. The slice must not
// be modified and is invalidated by further writes.
func (w *Writer) Index() []BlockOffset { return w.index }

// Close flushes any buffered data and writes the terminal BGZF EOF
// marker.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := w.w.Write(EOF)
	return err
}
