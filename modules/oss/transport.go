// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// HttpRequest is what the RequestPipeline hands to a Transport: headers as
// a case-insensitive mapping (http.Header canonicalizes key case; it keeps
// no insertion order), an explicit method, URL and an optional body stream.
type HttpRequest struct {
	Method        string
	URL           string
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64
}

// HttpResponse is what a Transport hands back: status, headers, an
// optional streamed body. CRC64 is a side-channel field for a response-body
// CRC64; neither httpTransport nor RequestPipeline sets it, so it stays 0.
// Download CRC64 verification is done by crcVerifyingBody (body.go) as the
// caller reads the body.
type HttpResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
	CRC64      uint64
}

// Transport is the pluggable HTTP collaborator spec.md §1 places out of
// scope for this library's own concerns (connection pool, TLS, proxies);
// RequestPipeline only depends on this interface.
type Transport interface {
	Do(ctx context.Context, req *HttpRequest) (*HttpResponse, error)
}

const (
	defaultIdleConnTimeout       = 100 * time.Second
	defaultResponseHeaderTimeout = 120 * time.Second
	defaultMaxIdleConns          = 100
)

// TransportOptions configures the default net/http-backed Transport,
// mirroring the configuration surface in spec.md §6.
type TransportOptions struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxConnections int
	VerifySSL      bool
	ProxyURL       *url.URL
}

// httpTransport is the default Transport, grounded on modules/oss/oss.go's
// NewBucket dialer/http.Transport construction, generalized to the
// configurable surface spec.md §6 names.
type httpTransport struct {
	client *http.Client
}

// NewDefaultTransport builds the default net/http-backed Transport.
func NewDefaultTransport(opts TransportOptions) Transport {
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = 16
	}
	dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
	proxy := http.ProxyFromEnvironment
	if opts.ProxyURL != nil {
		proxy = http.ProxyURL(opts.ProxyURL)
	}
	tr := &http.Transport{
		Proxy: proxy,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return newTimeoutConn(conn, requestTimeout), nil
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !opts.VerifySSL},
	}
	return &httpTransport{client: &http.Client{Transport: tr}}
}

func (t *httpTransport) Do(ctx context.Context, req *HttpRequest) (*HttpResponse, error) {
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	hreq.Header = req.Header
	if req.ContentLength >= 0 {
		hreq.ContentLength = req.ContentLength
	}
	resp, err := t.client.Do(hreq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return &HttpResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// classifyTransportError maps a net/http transport failure onto the fixed
// transport-error enumeration RetryPolicy understands (spec.md §4.5, §7.3).
func classifyTransportError(err error) *Error {
	if err == nil {
		return nil
	}
	code := ErrSendError
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		code = ErrTimedOut
	case errors.Is(err, io.ErrUnexpectedEOF):
		code = ErrPartialFile
	case errors.Is(err, io.EOF):
		code = ErrGotNothing
	case isConnectionRefused(err):
		code = ErrConnectFailed
	}
	return &Error{Code: code, Message: err.Error()}
}

func isConnectionRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
