// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// composedURL is the host+path+query UrlComposer produces; the pipeline and
// PresignedUrlBuilder both consume it.
type composedURL struct {
	scheme string
	host   string
	path   string
}

func (u composedURL) String(rawQuery string) string {
	full := u.scheme + "://" + u.host + u.path
	if rawQuery != "" {
		full += "?" + rawQuery
	}
	return full
}

// composeURL implements spec.md §4.3: virtual-hosted style by default,
// CNAME when the bucket carries its own domain, path-style when the
// endpoint is an IP literal or the bucket name is not valid-for-virtual-host.
func composeURL(scheme, endpointHost, bucket, key string, isCname bool) composedURL {
	encodedKey := encodePath(key)
	switch {
	case isCname:
		return composedURL{scheme: scheme, host: endpointHost, path: "/" + encodedKey}
	case bucket == "":
		return composedURL{scheme: scheme, host: endpointHost, path: "/" + encodedKey}
	case isIPHost(endpointHost) || !validForVirtualHost(bucket):
		path := "/" + bucket
		if encodedKey != "" {
			path += "/" + encodedKey
		} else {
			path += "/"
		}
		return composedURL{scheme: scheme, host: endpointHost, path: path}
	default:
		return composedURL{scheme: scheme, host: bucket + "." + endpointHost, path: "/" + encodedKey}
	}
}

func isIPHost(host string) bool {
	h := host
	if hh, _, err := net.SplitHostPort(host); err == nil {
		h = hh
	}
	return net.ParseIP(h) != nil
}

// validForVirtualHost rejects bucket names that fail the invariants in
// spec.md §3 (they can never legally host the virtual-hosted style, so
// path-style is the only sane fallback).
func validForVirtualHost(bucket string) bool {
	return validateBucketName(bucket) == nil
}

// encodePath percent-encodes each path segment, preserving "/".
func encodePath(key string) string {
	if key == "" {
		return ""
	}
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// encodeQuery assembles "k=v&k2=v2" from a parameter map, keys in sorted
// order; k alone (no "=") when v is empty, matching spec.md §4.3.
func encodeQuery(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := params[k]; v != "" {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		} else {
			parts = append(parts, url.QueryEscape(k))
		}
	}
	return strings.Join(parts, "&")
}
