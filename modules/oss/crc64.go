// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"hash"
	"hash/crc64"
)

// ossCRC64Table is the ECMA-182 polynomial (reflected 0xC96C5795D7870F42)
// the server reports in x-oss-hash-crc64ecma, matching spec.md §4.4.
// stdlib's crc64.ECMA constant is exactly this polynomial, already in the
// reflected form the combine math below expects.
var ossCRC64Table = crc64.MakeTable(crc64.ECMA)

func newCRC64() hash.Hash64 {
	return crc64.New(ossCRC64Table)
}

const gf2Dim = 64

func gf2MatrixTimes(mat [gf2Dim]uint64, vec uint64) uint64 {
	var sum uint64
	for n := 0; vec != 0; n++ {
		if vec&1 != 0 {
			sum ^= mat[n]
		}
		vec >>= 1
	}
	return sum
}

func gf2MatrixSquare(mat [gf2Dim]uint64) (square [gf2Dim]uint64) {
	for n := 0; n < gf2Dim; n++ {
		square[n] = gf2MatrixTimes(mat, mat[n])
	}
	return square
}

// crc64Combine folds the independently-computed CRC64 of a byte sequence of
// length lenB onto the running CRC64 of the sequence that precedes it, so
// streamed chunks can be reduced in order without buffering the whole
// object (spec.md §4.4, §8 "CRC64 commutativity with chunking"). This is
// the classic zlib/gzip "combine" construction (GF(2) matrix
// exponentiation over the polynomial, by bit-length of the shift): stdlib's
// hash/crc64 exposes no combine primitive, so it's built here directly on
// top of the ECMA table above.
func crc64Combine(crcA, crcB uint64, lenB int64) uint64 {
	if lenB <= 0 {
		return crcA
	}

	// odd: operator for a one-bit zero shift.
	var odd [gf2Dim]uint64
	odd[0] = crc64.ECMA
	row := uint64(1)
	for n := 1; n < gf2Dim; n++ {
		odd[n] = row
		row <<= 1
	}
	even := gf2MatrixSquare(odd) // two-bit shift
	odd = gf2MatrixSquare(even)  // four-bit shift

	crc1 := crcA
	n := uint64(lenB)
	for {
		// first squaring in the loop turns the 4-bit operator into the
		// 8-bit (one byte) operator; subsequent iterations double the
		// byte-shift each time, consuming n one bit at a time.
		even = gf2MatrixSquare(odd)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(even, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}
		odd = gf2MatrixSquare(even)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(odd, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}
	}
	return crc1 ^ crcB
}
