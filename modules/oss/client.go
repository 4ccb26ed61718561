// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Bucket is the application-facing surface this module exposes; it is the
// thin specialization catalog spec.md §1 describes, each method a small
// wrapper over RequestPipeline.Execute. Grounded on the teacher's own
// pkg/serve/odb/oss.go, the consumer of exactly this interface.
type Bucket interface {
	Stat(ctx context.Context, resourcePath string) (*Stat, error)
	Open(ctx context.Context, resourcePath string, start, length int64) (RangeReader, error)
	Delete(ctx context.Context, resourcePath string) error
	Put(ctx context.Context, resourcePath string, r io.Reader, mime string) error
	StartUpload(ctx context.Context, resourcePath, filePath string, mime string) error
	// LinearUpload: Aliyun OSS has a 5GB single-PUT limit, so objects above
	// that threshold go through MultipartUpload instead.
	LinearUpload(ctx context.Context, resourcePath string, r io.Reader, size int64, mime string) error
	DeleteMultipleObjects(ctx context.Context, objectKeys []string) error
	ListObjects(ctx context.Context, prefix, continuationToken string) ([]*Object, string, error)
	Share(ctx context.Context, resourcePath string, expiresAt int64) string
}

// Stat is HeadObject's result, trimmed to what callers actually need.
type Stat struct {
	Size  int64
	Mime  string
	Crc64 string
}

var _ Bucket = (*Client)(nil)

// Client wires Config + CredentialsProvider + Transport + RequestPipeline +
// AsyncDispatcher together (spec.md §5: configuration is read-only after
// construction; a new Client is required to change it).
type Client struct {
	bucket   string
	partSize int64

	pipeline       *RequestPipeline
	sharedPipeline *RequestPipeline
	presign        *PresignedUrlBuilder

	dispatcher *AsyncDispatcher
}

// NewClient builds a Client from ClientOptions, following the teacher's
// NewBucket construction in modules/oss/oss.go (endpoint parsing, dialer
// timeouts, http.Transport tuning) generalized over the pluggable Transport
// interface spec.md §1 calls for.
func NewClient(ctx context.Context, opts *ClientOptions) (*Client, error) {
	scheme, host, err := splitEndpoint(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("oss: parse endpoint: %w", err)
	}

	proxyURL, err := buildProxyURL(opts)
	if err != nil {
		return nil, fmt.Errorf("oss: parse proxy: %w", err)
	}
	transport := NewDefaultTransport(TransportOptions{
		ConnectTimeout: opts.connectTimeout(),
		RequestTimeout: opts.requestTimeout(),
		MaxConnections: opts.maxConnections(),
		VerifySSL:      opts.VerifySSL,
		ProxyURL:       proxyURL,
	})

	creds := NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, opts.SessionToken)

	var sendLimiter, recvLimiter *rate.Limiter
	if opts.SendRateLimit > 0 {
		sendLimiter = rate.NewLimiter(rate.Limit(opts.SendRateLimit), opts.SendRateLimit)
	}
	if opts.RecvRateLimit > 0 {
		recvLimiter = rate.NewLimiter(rate.Limit(opts.RecvRateLimit), opts.RecvRateLimit)
	}

	pipeline := &RequestPipeline{
		Transport:    transport,
		Credentials:  creds,
		Signer:       DefaultSigner,
		EndpointHost: host,
		Scheme:       scheme,
		IsCname:      opts.IsCname,
		UserAgent:    opts.UserAgent,
		EnableCRC64:  opts.enableCRC64(),
		Retry:        opts.retryPolicy(),
		SendLimiter:  sendLimiter,
		RecvLimiter:  recvLimiter,
	}

	sharedPipeline := pipeline
	if opts.SharedEndpoint != "" {
		sharedScheme, sharedHost, err := splitEndpoint(opts.SharedEndpoint)
		if err != nil {
			return nil, fmt.Errorf("oss: parse shared endpoint: %w", err)
		}
		shared := *pipeline
		shared.Scheme = sharedScheme
		shared.EndpointHost = sharedHost
		sharedPipeline = &shared
	}

	presign := &PresignedUrlBuilder{
		EndpointHost: sharedPipeline.EndpointHost,
		Scheme:       sharedPipeline.Scheme,
		IsCname:      opts.IsCname,
		Credentials:  creds,
		Signer:       DefaultSigner,
	}

	partSize := opts.PartSize
	if partSize <= 0 {
		partSize = defaultPartSize
	}

	return &Client{
		bucket:         opts.Bucket,
		partSize:       partSize,
		pipeline:       pipeline,
		sharedPipeline: sharedPipeline,
		presign:        presign,
		dispatcher:     NewAsyncDispatcher(ctx, opts.maxConnections()),
	}, nil
}

// Close shuts down the client's AsyncDispatcher, draining pending tasks.
func (c *Client) Close() {
	c.dispatcher.Shutdown()
}

// Disable trips the DisableRequest latch (spec.md §5): every subsequent
// request, including in-flight retries, fails fast with
// Failure(code="ClientDisabled").
func (c *Client) Disable() { c.pipeline.Disable() }
func (c *Client) Enable()  { c.pipeline.Enable() }

func splitEndpoint(endpoint string) (scheme, host string, err error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	return u.Scheme, u.Host, nil
}

func buildProxyURL(opts *ClientOptions) (*url.URL, error) {
	if opts.ProxyHost == "" {
		return nil, nil
	}
	scheme := opts.ProxyScheme
	if scheme == "" {
		scheme = "http"
	}
	host := opts.ProxyHost
	if opts.ProxyPort > 0 {
		host = net.JoinHostPort(opts.ProxyHost, strconv.Itoa(opts.ProxyPort))
	}
	u := &url.URL{Scheme: scheme, Host: host}
	if opts.ProxyUser != "" {
		u.User = url.UserPassword(opts.ProxyUser, opts.ProxyPassword)
	}
	return u, nil
}

// Share is a presigned-GET convenience, grounded on modules/oss/bucket.go's
// Share, now materialized through the shared PresignedUrlBuilder (C8)
// rather than a hand-rolled HMAC call.
func (c *Client) Share(ctx context.Context, resourcePath string, expiresAt int64) string {
	if expiresAt <= 0 {
		expiresAt = time.Now().Add(time.Hour).Unix()
	}
	u, err := c.presign.Build(ctx, PresignOptions{
		Bucket:  c.bucket,
		Key:     resourcePath,
		Method:  "GET",
		Expires: expiresAt,
	})
	if err != nil {
		return ""
	}
	return u
}
