// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import "testing"

func TestHmacSHA1SignerDeterministic(t *testing.T) {
	canonical := "GET\n\n\nWed, 28 Nov 2018 09:26:08 GMT\n/examplebucket/nelson"
	s1 := DefaultSigner.Generate(canonical, "test-secret")
	s2 := DefaultSigner.Generate(canonical, "test-secret")
	if s1 != s2 {
		t.Fatalf("signature must be deterministic: %q != %q", s1, s2)
	}
	if s1 == "" {
		t.Fatal("signature must not be empty")
	}
}

func TestHmacSHA1SignerVersion(t *testing.T) {
	if DefaultSigner.Version() != signerVersionV1 {
		t.Fatalf("got version %d, want %d", DefaultSigner.Version(), signerVersionV1)
	}
}

func TestHmacSHA1SignerDiffersBySecret(t *testing.T) {
	canonical := "GET\n\n\nWed, 28 Nov 2018 09:26:08 GMT\n/examplebucket/nelson"
	a := DefaultSigner.Generate(canonical, "secret-a")
	b := DefaultSigner.Generate(canonical, "secret-b")
	if a == b {
		t.Fatal("different secrets must not produce the same signature")
	}
}
