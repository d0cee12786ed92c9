// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/flate"
)

// Reader reads a BGZF stream, or falls back to a plain gzip or
// uncompressed stream when the input is not BGZF-framed. Random access
// via Seek is only available when the stream is genuine BGZF and the
// underlying reader implements io.ReadSeeker.
type Reader struct {
	rs io.ReadSeeker // non-nil only when random access is possible
	r  io.Reader     // member-framed byte stream, when isBGZF
	gz io.Reader     // gzip/plain fallback stream, when !isBGZF

	isBGZF bool

	block      []byte
	blockStart int64 // compressed offset of the start of block
	blockLen   int64 // compressed length of block
	pos        int   // read cursor within block

	atEOF bool
	err   error
}

// NewReader detects whether r (optionally also an io.ReadSeeker) is a
// BGZF stream by inspecting its gzip header for a "BC" extra subfield.
// If the stream is not BGZF, NewReader falls back to decoding it as a
// plain gzip stream, or, if it is not gzip at all, as an uncompressed
// stream; in either fallback case Seek returns ErrSeekUnsupported.
func NewReader(r io.Reader) (*Reader, error) {
	rs, _ := r.(io.ReadSeeker)
	br := bufio.NewReaderSize(r, MaxBlockSize+256)
	peek, err := br.Peek(18)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(peek) >= 2 && peek[0] == gzipID1 && peek[1] == gzipID2 {
		if isBGZFHeader(peek) {
			return &Reader{rs: rs, r: br, isBGZF: true}, nil
		}
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &Reader{gz: gz}, nil
	}
	return &Reader{gz: br}, nil
}

// isBGZFHeader reports whether the 18 bytes of a gzip header (ID1, ID2,
// CM, FLG, MTIME[4], XFL, OS, XLEN[2], extra...) carry a BC subfield,
// which is BGZF's distinguishing feature (SAM spec §4.1).
func isBGZFHeader(h []byte) bool {
	if len(h) < 12 || h[3]&flagExtra == 0 {
		return false
	}
	xlen := int(binary.LittleEndian.Uint16(h[10:12]))
	if xlen < 6 {
		return false
	}
	extra := h[12:]
	if len(extra) > xlen {
		extra = extra[:xlen]
	}
	for len(extra) >= 4 {
		si1, si2 := extra[0], extra[1]
		slen := int(binary.LittleEndian.Uint16(extra[2:4]))
		if si1 == 'B' && si2 == 'C' && slen == 2 {
			return true
		}
		if len(extra) < 4+slen {
			break
		}
		extra = extra[4+slen:]
	}
	return false
}

// IsRandomAccess reports whether Seek can be used on this reader.
func (r *Reader) IsRandomAccess() bool { return r.isBGZF && r.rs != nil }

// Seek positions the reader at the block starting at virtual offset
// off's compressed coordinate, with off's uncompressed coordinate
// already consumed. It returns ErrSeekUnsupported if the underlying
// stream does not support random access.
func (r *Reader) Seek(off VirtualOffset) error {
	if !r.IsRandomAccess() {
		return ErrSeekUnsupported
	}
	_, err := r.rs.Seek(off.Coffset(), io.SeekStart)
	if err != nil {
		return err
	}
	r.r = bufio.NewReaderSize(r.rs, MaxBlockSize+256)
	r.block = nil
	r.blockStart = off.Coffset()
	r.blockLen = 0
	r.pos = 0
	r.atEOF = false
	r.err = nil
	if err := r.fillBlock(); err != nil {
		return err
	}
	if int(off.Uoffset()) > len(r.block) {
		return fmt.Errorf("bgzf: uncompressed offset %d exceeds block length %d", off.Uoffset(), len(r.block))
	}
	r.pos = int(off.Uoffset())
	return nil
}

// VirtualTell returns the current virtual offset: the start of the
// block currently being read from, plus the number of uncompressed
// bytes of that block already consumed. It is only meaningful for
// genuine BGZF streams.
func (r *Reader) VirtualTell() VirtualOffset {
	if r.pos >= MaxBlockSize {
		// A fully consumed 64 KiB block has no 16-bit in-block offset;
		// the equivalent position is the start of the next block.
		return MakeVirtualOffset(r.blockStart+r.blockLen, 0)
	}
	return MakeVirtualOffset(r.blockStart, uint16(r.pos))
}

// Tell implements internal/seqio.Teller by returning the current
// virtual offset widened to uint64.
func (r *Reader) Tell() uint64 { return uint64(r.VirtualTell()) }

// Read implements io.Reader, decoding across BGZF block boundaries as
// needed. For the gzip/plain fallback it delegates to the wrapped
// reader directly.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if !r.isBGZF {
		return r.gz.Read(p)
	}
	var n int
	for n < len(p) {
		if r.pos >= len(r.block) {
			if r.atEOF {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			r.blockStart += r.blockLen
			if err := r.fillBlock(); err != nil {
				r.err = err
				if n > 0 && err == io.EOF {
					return n, nil
				}
				return n, err
			}
			continue
		}
		c := copy(p[n:], r.block[r.pos:])
		n += c
		r.pos += c
	}
	return n, nil
}

// fillBlock decodes the next BGZF member into r.block, validating its
// CRC32 and ISIZE trailer. It sets r.atEOF once the terminal empty
// block (or the true end of stream) has been consumed.
func (r *Reader) fillBlock() error {
	head := make([]byte, 12)
	_, err := io.ReadFull(r.r, head)
	if err != nil {
		if err == io.EOF {
			r.block = nil
			r.pos = 0
			r.atEOF = true
			return nil
		}
		return fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	if head[0] != gzipID1 || head[1] != gzipID2 || head[2] != gzipDeflate {
		return ErrBadMagic
	}
	xlen := int(binary.LittleEndian.Uint16(head[10:12]))
	extra := make([]byte, xlen)
	if _, err := io.ReadFull(r.r, extra); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	total, err := blockSizeFromExtra(extra)
	if err != nil {
		return err
	}
	headerLen := 12 + xlen
	payloadLen := total - headerLen - 8
	if payloadLen < 0 {
		return ErrTruncatedBlock
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	trailer := make([]byte, 8)
	if _, err := io.ReadFull(r.r, trailer); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	wantCRC := binary.LittleEndian.Uint32(trailer[0:4])
	wantISize := binary.LittleEndian.Uint32(trailer[4:8])

	fr := flate.NewReader(bytes.NewReader(payload))
	data, err := ioutil.ReadAll(fr)
	fr.Close()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedBlock, err)
	}
	if crc32.ChecksumIEEE(data) != wantCRC {
		return ErrBadCRC
	}
	if uint32(len(data)) != wantISize {
		return ErrBadISize
	}

	r.block = data
	r.blockLen = int64(total)
	r.pos = 0
	if len(data) == 0 {
		r.atEOF = true
	}
	return nil
}

// blockSizeFromExtra scans a gzip extra field for the BC subfield and
// returns the total compressed block size (BSIZE+1).
func blockSizeFromExtra(extra []byte) (int, error) {
	for len(extra) >= 4 {
		si1, si2 := extra[0], extra[1]
		slen := int(binary.LittleEndian.Uint16(extra[2:4]))
		if si1 == 'B' && si2 == 'C' && slen == 2 && len(extra) >= 6 {
			bsize := int(binary.LittleEndian.Uint16(extra[4:6]))
			return bsize + 1, nil
		}
		if len(extra) < 4+slen {
			break
		}
		extra = extra[4+slen:]
	}
	return 0, ErrNoBlockSize
}

// Close releases the underlying file or stream, if it is closeable.
func (r *Reader) Close() error {
	if c, ok := r.gz.(io.Closer); ok {
		return c.Close()
	}
	if c, ok := r.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
