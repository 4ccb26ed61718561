// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import "testing"

func TestSizeFromRange(t *testing.T) {
	cases := []struct {
		hdr     string
		want    int64
		wantErr bool
	}{
		{hdr: "bytes 200-1000/67589", want: 67589},
		{hdr: "bytes 100-900/344606", want: 344606},
		{hdr: "bytes 100-900/*", wantErr: true},
		{hdr: "bytes */344606", want: 344606},
		{hdr: "x", wantErr: true},
	}
	for _, c := range cases {
		got, err := parseSizeFromRange(c.hdr)
		if c.wantErr {
			if err == nil {
				t.Errorf("hdr %q: expected an error, got size %d", c.hdr, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("hdr %q: %v", c.hdr, err)
			continue
		}
		if got != c.want {
			t.Errorf("hdr %q: got size %d, want %d", c.hdr, got, c.want)
		}
	}
}
