// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf implements reading and writing of the blocked gzip
// format (BGZF) used by samtools and its relatives for random access
// into compressed FASTA/SAM/BAM files. A BGZF stream is a concatenation
// of independent gzip members, each holding at most 64 KiB of
// uncompressed payload and carrying a "BC" extra subfield recording the
// total compressed size of the member; the stream is terminated by a
// fixed 28-byte empty member.
//
// The reader/writer split and the virtual offset representation follow
// github.com/biogo/hts/bgzf, the reference implementation this package
// is modelled on.
package bgzf

import (
	"errors"
	"fmt"
)

// MaxBlockSize is the maximum permitted uncompressed size of a BGZF
// block.
const MaxBlockSize = 65536

// EOF is the canonical 28 byte BGZF end-of-file marker.
var EOF = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0x06, 0x00, 0x42, 0x43, 0x02, 0x00, 0x1b, 0x00, 0x03, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Errors returned by this package.
var (
	ErrBadMagic        = errors.New("bgzf: bad magic number")
	ErrNoBlockSize     = errors.New("bgzf: missing BC extra subfield")
	ErrTruncatedBlock  = errors.New("bgzf: truncated block")
	ErrBadCRC          = errors.New("bgzf: CRC32 checksum mismatch")
	ErrBadISize        = errors.New("bgzf: ISIZE mismatch")
	ErrSeekUnsupported = errors.New("bgzf: seek unsupported on this stream")
)

const (
	gzipID1  = 0x1f
	gzipID2  = 0x8b
	gzipDeflate = 8
	flagExtra   = 1 << 2
)

// VirtualOffset is a BGZF virtual file offset: the upper 48 bits hold
// the start of a compressed block relative to the start of the file,
// and the lower 16 bits hold a byte offset into that block's
// uncompressed payload.
type VirtualOffset uint64

// MakeVirtualOffset builds a VirtualOffset from a compressed block
// offset and an uncompressed in-block offset. uoffset must fit a BGZF
// block (< 64 KiB).
func MakeVirtualOffset(coffset int64, uoffset uint16) VirtualOffset {
	return VirtualOffset(coffset<<16 | int64(uoffset))
}

// Coffset returns the compressed block start offset.
func (o VirtualOffset) Coffset() int64 { return int64(o >> 16) }

// Uoffset returns the uncompressed offset within the block.
func (o VirtualOffset) Uoffset() uint16 { return uint16(o & 0xffff) }

func (o VirtualOffset) String() string {
	return fmt.Sprintf("%d:%d", o.Coffset(), o.Uoffset())
}
