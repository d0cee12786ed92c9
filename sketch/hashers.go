// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// byteHasher hashes a k-mer's byte representation to a 64-bit score.
type byteHasher func([]byte) uint64

func (p Params) byteHasher() byteHasher {
	switch p.Hasher {
	case Murmur3:
		return murmur3Sum64
	case Fx:
		return fxSum64
	default:
		return xxhash.Sum64
	}
}

// rapidMix, murmur3Mix64 and fxMix64 operate directly on the packed 2-bit encoding of
// a k-mer (as a uint64) for the hot DNA path, avoiding an intermediate
// byte-slice allocation per k-mer.
func (p Params) uint64Hasher() hashFunc {
	switch p.Hasher {
	case Murmur3:
		return murmur3Mix64
	case Fx:
		return fxMix64
	default:
		return rapidMix
	}
}

// rapidMix is a single-round avalanche mix in the spirit of rapidhash's
// finalizer, used as the default hasher for packed DNA k-mers.
func rapidMix(x uint64) uint64 {
	const m1 = 0x2d358dccaa6c78a5
	const m2 = 0x8bb84b93962eacc9
	x ^= x >> 33
	x *= m1
	x ^= x >> 29
	x *= m2
	x ^= x >> 32
	return x
}

// murmur3Mix64 is MurmurHash3's 64-bit finalizer (fmix64), applied
// directly to a packed k-mer.
func murmur3Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// murmur3Sum64 hashes an arbitrary byte slice using MurmurHash3 x64's
// low 64 bits (single 64-bit lane variant), for protein k-mers and any
// caller that needs a byte-oriented murmur3 hash.
func murmur3Sum64(data []byte) uint64 {
	const (
		c1 = 0x87c37b91114253d5
		c2 = 0x4cf5ad432745937f
	)
	var h uint64 = 0xc70f6907
	nblocks := len(data) / 8
	for i := 0; i < nblocks; i++ {
		k := binary.LittleEndian.Uint64(data[i*8:])
		k *= c1
		k = rotl64(k, 31)
		k *= c2
		h ^= k
		h = rotl64(h, 27)
		h = h*5 + 0x52dce729
	}
	tail := data[nblocks*8:]
	var k uint64
	for i := len(tail) - 1; i >= 0; i-- {
		k <<= 8
		k |= uint64(tail[i])
	}
	if len(tail) > 0 {
		k *= c1
		k = rotl64(k, 31)
		k *= c2
		h ^= k
	}
	h ^= uint64(len(data))
	return murmur3Mix64(h)
}

func rotl64(x uint64, r uint) uint64 {
	return x<<r | x>>(64-r)
}

// fxMix64 is an FxHash-style mixing step applied to a single packed
// k-mer: x rotated left by 5 bits, xored with x multiplied by FxHash's
// constant, chosen for speed rather than cryptographic strength,
// exactly as FxHash itself is.
func fxMix64(x uint64) uint64 {
	const seed = 0x51_7c_c1_b7_27_22_0a_95
	return rotl64(x, 5) ^ x*seed
}

// fxSum64 folds a byte slice through fxMix64 eight bytes at a time,
// for protein k-mers.
func fxSum64(data []byte) uint64 {
	var h uint64
	for len(data) >= 8 {
		h = fxMix64(h ^ binary.LittleEndian.Uint64(data))
		data = data[8:]
	}
	if len(data) > 0 {
		var tail [8]byte
		copy(tail[:], data)
		h = fxMix64(h ^ binary.LittleEndian.Uint64(tail[:]))
	}
	return h
}
