// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"strconv"
)

// PresignedUrlBuilder is C8: the same canonical-string discipline as
// header-signing, materialized as a URL instead of an Authorization header
// (spec.md §4.8), grounded on modules/oss/bucket.go's Share and the
// reference SDK's SignedURLWithMethod/UploadSignedURL.
type PresignedUrlBuilder struct {
	EndpointHost string
	Scheme       string
	IsCname      bool
	Credentials  CredentialsProvider
	Signer       Signer
}

// PresignOptions are the inputs to Build (spec.md §4.8).
type PresignOptions struct {
	Bucket     string
	Key        string
	Method     string
	Expires    int64 // absolute Unix timestamp
	Headers    map[string]string
	Parameters map[string]string
}

// Build implements spec.md §4.8's procedure: validate, fold in the session
// token, sign the canonical string with Expires standing in for Date, then
// emit the URL via the shared UrlComposer (C3).
func (b *PresignedUrlBuilder) Build(ctx context.Context, opts PresignOptions) (string, error) {
	if err := validateBucketName(opts.Bucket); err != nil {
		return "", err
	}
	if opts.Key != "" {
		if err := validateObjectKey(opts.Key); err != nil {
			return "", err
		}
	}
	if opts.Method == "" {
		opts.Method = "GET"
	}

	creds, err := b.Credentials.Retrieve(ctx)
	if err != nil {
		return "", fmt.Errorf("oss: presign: retrieve credentials: %w", err)
	}
	if creds.empty() {
		return "", fmt.Errorf("oss: presign: missing access key id/secret")
	}

	params := make(map[string]string, len(opts.Parameters)+3)
	for k, v := range opts.Parameters {
		params[k] = v
	}
	if creds.SessionToken != "" {
		params["security-token"] = creds.SessionToken
	}

	expires := strconv.FormatInt(opts.Expires, 10)
	canonical := buildCanonicalString(canonicalRequest{
		method:        opts.Method,
		contentMD5:    opts.Headers["Content-MD5"],
		contentType:   opts.Headers["Content-Type"],
		dateOrExpires: expires,
		ossHeaders:    opts.Headers,
		bucket:        opts.Bucket,
		key:           opts.Key,
		params:        params,
	})
	signature := b.Signer.Generate(canonical, creds.AccessKeySecret)

	params["Expires"] = expires
	params["OSSAccessKeyId"] = creds.AccessKeyID
	params["Signature"] = signature

	u := composeURL(b.Scheme, b.EndpointHost, opts.Bucket, opts.Key, b.IsCname)
	return u.String(encodeQuery(params)), nil
}
