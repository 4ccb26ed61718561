// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// Signer turns a canonical string into the signature bytes carried in the
// Authorization header or a presigned URL's Signature parameter.
//
// https://help.aliyun.com/document_detail/31951.html
// Signature = base64(hmac-sha1(AccessKeySecret, canonicalString))
type Signer interface {
	// Generate returns base64(HMAC-SHA1(secret, canonicalString)).
	Generate(canonicalString, accessKeySecret string) string
	// Version tags the scheme this signer implements; a CanonicalBuilder and
	// a Signer must agree on version, mixing them is a programming error.
	Version() int
}

const signerVersionV1 = 1

type hmacSHA1Signer struct{}

// DefaultSigner is the V1 HMAC-SHA1 scheme documented at
// https://help.aliyun.com/document_detail/31951.html.
var DefaultSigner Signer = hmacSHA1Signer{}

func (hmacSHA1Signer) Generate(canonicalString, accessKeySecret string) string {
	h := hmac.New(sha1.New, []byte(accessKeySecret))
	_, _ = h.Write([]byte(canonicalString))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (hmacSHA1Signer) Version() int {
	return signerVersionV1
}
