// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func crc64Of(b []byte) uint64 {
	h := newCRC64()
	h.Write(b)
	return h.Sum64()
}

func TestCrc64CombineMatchesWholeSequence(t *testing.T) {
	whole := make([]byte, 0, 5000)
	for i := 0; i < 5000; i++ {
		whole = append(whole, byte(i*31+7))
	}
	want := crc64Of(whole)

	for _, at := range []int{0, 1, 17, 100, 4096, 4999} {
		a, b := whole[:at], whole[at:]
		combined := crc64Combine(crc64Of(a), crc64Of(b), int64(len(b)))
		assert.Equal(t, want, combined, "split at %d", at)
	}
}

func TestCrc64CombineThreeChunks(t *testing.T) {
	whole := []byte("the quick brown fox jumps over the lazy dog, twelve times over")
	want := crc64Of(whole)

	c1 := len(whole) / 3
	c2 := 2 * len(whole) / 3
	a, b, c := whole[:c1], whole[c1:c2], whole[c2:]

	running := crc64Combine(crc64Of(a), crc64Of(b), int64(len(b)))
	running = crc64Combine(running, crc64Of(c), int64(len(c)))
	assert.Equal(t, want, running)
}

func TestCrc64CombineEmptyTail(t *testing.T) {
	a := []byte("unchanged")
	got := crc64Combine(crc64Of(a), 0, 0)
	assert.Equal(t, crc64Of(a), got, "combining with a zero-length tail must be a no-op")
}
