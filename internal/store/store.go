// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store provides the ordered on-disk key encoding used to spill
// named minimizer sketches to a modernc.org/kv database when a target
// set is too large to hold in memory.
package store

import (
	"bytes"
	"encoding/binary"
)

var order = binary.BigEndian

// SketchKey identifies one named sketch within a spilled file, ordered
// first by its source file then by record name so that a scan over
// one file's entries is contiguous.
type SketchKey struct {
	File string
	Name string
}

// MarshalSketchKey encodes k as a length-prefixed file name followed
// by the record name, matching the length-prefixed string encoding
// this package's ordering scheme was adapted from.
func MarshalSketchKey(k SketchKey) []byte {
	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], uint64(len(k.File)))
	buf.Write(b[:])
	buf.WriteString(k.File)
	buf.WriteString(k.Name)
	return buf.Bytes()
}

// UnmarshalSketchKey decodes a key produced by MarshalSketchKey.
func UnmarshalSketchKey(data []byte) SketchKey {
	n := order.Uint64(data[:8])
	data = data[8:]
	file := string(data[:n])
	name := string(data[n:])
	return SketchKey{File: file, Name: name}
}

// ByFileThenName is a kv.Options.Compare function ordering entries by
// file, then by record name, then breaking any remaining tie by the
// raw key bytes.
func ByFileThenName(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}
	kx, ky := UnmarshalSketchKey(x), UnmarshalSketchKey(y)
	switch {
	case kx.File < ky.File:
		return -1
	case kx.File > ky.File:
		return 1
	}
	switch {
	case kx.Name < ky.Name:
		return -1
	case kx.Name > ky.Name:
		return 1
	}
	return bytes.Compare(x, y)
}

// MarshalSketch encodes a sorted u64 hash set as a big-endian byte
// string, one uint64 per 8 bytes.
func MarshalSketch(hashes []uint64) []byte {
	buf := make([]byte, 8*len(hashes))
	for i, h := range hashes {
		order.PutUint64(buf[i*8:], h)
	}
	return buf
}

// UnmarshalSketch decodes a byte string produced by MarshalSketch.
func UnmarshalSketch(data []byte) []uint64 {
	hashes := make([]uint64, len(data)/8)
	for i := range hashes {
		hashes[i] = order.Uint64(data[i*8:])
	}
	return hashes
}
