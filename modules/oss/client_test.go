// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"strings"
	"testing"
)

func TestNewClientBuildsVirtualHostedEndpoint(t *testing.T) {
	c, err := NewClient(context.Background(), &ClientOptions{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		Bucket:          "examplebucket",
		AccessKeyID:     "ak-id",
		AccessKeySecret: "ak-secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if c.pipeline.EndpointHost != "oss-cn-hangzhou.aliyuncs.com" {
		t.Fatalf("got endpoint host %q, want the bare endpoint (composeURL prefixes the bucket itself)", c.pipeline.EndpointHost)
	}
	if c.pipeline.Scheme != "http" {
		t.Fatalf("got scheme %q, want http default when endpoint carries none", c.pipeline.Scheme)
	}
	if c.partSize != defaultPartSize {
		t.Fatalf("got part size %d, want default %d", c.partSize, defaultPartSize)
	}

	u := c.pipeline.composeRequestURL(NewObjectRequest(c.bucket, "nelson"))
	if u != "http://examplebucket.oss-cn-hangzhou.aliyuncs.com/nelson" {
		t.Fatalf("got composed request URL %q, want a single bucket-prefixed host", u)
	}
}

func TestNewClientSharedEndpoint(t *testing.T) {
	c, err := NewClient(context.Background(), &ClientOptions{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		SharedEndpoint:  "oss-accelerate.aliyuncs.com",
		Bucket:          "examplebucket",
		AccessKeyID:     "ak-id",
		AccessKeySecret: "ak-secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	if c.sharedPipeline.EndpointHost != "oss-accelerate.aliyuncs.com" {
		t.Fatalf("got shared endpoint host %q, want the bare endpoint (composeURL prefixes the bucket itself)", c.sharedPipeline.EndpointHost)
	}
}

func TestClientShare(t *testing.T) {
	c, err := NewClient(context.Background(), &ClientOptions{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		Bucket:          "examplebucket",
		AccessKeyID:     "ak-id",
		AccessKeySecret: "ak-secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	url := c.Share(context.Background(), "nelson", 1700000000)
	if !strings.Contains(url, "Signature=") {
		t.Fatalf("expected a presigned URL, got %q", url)
	}
	if !strings.HasPrefix(url, "http://examplebucket.oss-cn-hangzhou.aliyuncs.com/nelson?") {
		t.Fatalf("got %q, want a single bucket-prefixed host", url)
	}
}
