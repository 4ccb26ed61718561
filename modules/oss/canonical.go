// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"sort"
	"strings"
)

// subresourceWhitelist is the fixed set of query parameters that participate
// in signing. Everything else still travels on the wire but plays no part in
// the canonical string.
//
// https://help.aliyun.com/document_detail/31951.html#section-rvv-dx2-xdb
var subresourceWhitelist = map[string]bool{
	"acl":                true,
	"uploadId":           true,
	"partNumber":         true,
	"location":           true,
	"lifecycle":          true,
	"logging":            true,
	"website":            true,
	"referer":            true,
	"cors":               true,
	"delete":             true,
	"stat":               true,
	"bucketInfo":         true,
	"storageCapacity":    true,
	"symlink":            true,
	"restore":            true,
	"objectMeta":         true,
	"uploads":            true,
	"continuation-token": true,
	"encoding-type":      true,
	"security-token":     true,
	"x-oss-process":      true,
	"versionId":          true,
}

func isWhitelistedSubresource(key string) bool {
	if subresourceWhitelist[key] {
		return true
	}
	return strings.HasPrefix(key, "response-")
}

// canonicalRequest is everything CanonicalBuilder needs to assemble the
// string to sign; header-signing and URL-signing both fill this in and
// share the same buildCanonicalString implementation.
type canonicalRequest struct {
	method          string
	contentMD5      string
	contentType     string
	dateOrExpires   string // Date for header signing, Expires for presigned URLs
	ossHeaders      map[string]string
	bucket          string
	key             string
	params          map[string]string // request's subresource parameters (pre-filter)
}

// buildCanonicalString implements spec.md §4.2: the deterministic text fed
// to HMAC for signature computation.
func buildCanonicalString(cr canonicalRequest) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(cr.method))
	b.WriteByte('\n')
	b.WriteString(cr.contentMD5)
	b.WriteByte('\n')
	b.WriteString(cr.contentType)
	b.WriteByte('\n')
	b.WriteString(cr.dateOrExpires)
	b.WriteByte('\n')

	keys := make([]string, 0, len(cr.ossHeaders))
	for k := range cr.ossHeaders {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "x-oss-") {
			keys = append(keys, lk)
		}
	}
	sort.Strings(keys)
	lower := make(map[string]string, len(cr.ossHeaders))
	for k, v := range cr.ossHeaders {
		lower[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(lower[k])
		b.WriteByte('\n')
	}

	b.WriteString(canonicalResource(cr.bucket, cr.key, cr.params))
	return b.String()
}

// canonicalResource builds "/bucket/key" (or the bucket-only / root forms)
// followed by the whitelisted subresource query, per spec.md §4.2 step 6.
func canonicalResource(bucket, key string, params map[string]string) string {
	var res string
	switch {
	case bucket != "" && key != "":
		res = "/" + bucket + "/" + key
	case bucket != "":
		res = "/" + bucket + "/"
	default:
		res = "/"
	}

	names := make([]string, 0, len(params))
	for k := range params {
		if isWhitelistedSubresource(k) {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return res
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		if v := params[k]; v != "" {
			parts = append(parts, k+"="+v)
		} else {
			parts = append(parts, k)
		}
	}
	return res + "?" + strings.Join(parts, "&")
}
