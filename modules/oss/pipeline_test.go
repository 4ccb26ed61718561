// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeTransport stands in for the network, the same "small fake
// collaborator, no mocking framework" idiom the teacher uses for its own
// httpserver tests.
type fakeTransport struct {
	calls    int
	handler  func(calls int, req *HttpRequest) (*HttpResponse, error)
}

func (t *fakeTransport) Do(_ context.Context, req *HttpRequest) (*HttpResponse, error) {
	t.calls++
	return t.handler(t.calls, req)
}

func newTestPipeline(transport Transport) *RequestPipeline {
	return &RequestPipeline{
		Transport:    transport,
		Credentials:  NewStaticCredentialsProvider("ak-id", "ak-secret", ""),
		Signer:       DefaultSigner,
		EndpointHost: "oss-cn-hangzhou.aliyuncs.com",
		Scheme:       "https",
		EnableCRC64:  true,
		Retry:        RetryPolicy{MaxRetries: 3, ScaleFactor: 10 * time.Millisecond},
	}
}

func TestExecuteValidateBeforeNetwork(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		t.Fatal("transport must never be invoked for a request that fails validation")
		return nil, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("AB", "key") // too short to be a valid bucket name
	_, err := p.Execute(context.Background(), req, http.MethodGet)
	var ossErr *Error
	if !errors.As(err, &ossErr) || ossErr.Code != "ValidateError" {
		t.Fatalf("expected ValidateError, got %v", err)
	}
	if transport.calls != 0 {
		t.Fatalf("transport was invoked %d times, want 0", transport.calls)
	}
}

func TestExecuteRetriesOn503ThenSucceeds(t *testing.T) {
	transport := &fakeTransport{handler: func(calls int, req *HttpRequest) (*HttpResponse, error) {
		if calls < 3 {
			return &HttpResponse{StatusCode: 503, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
		}
		return &HttpResponse{StatusCode: 200, Header: http.Header{"X-Oss-Request-Id": []string{"req-1"}}, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("examplebucket", "nelson")
	result, err := p.Execute(context.Background(), req, http.MethodGet)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	defer result.Body.Close()
	assert.Equal(t, 3, transport.calls, "expected 3 attempts")
	assert.Equal(t, "req-1", result.RequestId)
}

func TestExecuteGivesUpAfterMaxRetries(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		return &HttpResponse{StatusCode: 503, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("examplebucket", "nelson")
	_, err := p.Execute(context.Background(), req, http.MethodGet)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	assert.Equal(t, p.Retry.maxRetries()+1, transport.calls)
}

func TestExecuteClassifiesXMLError(t *testing.T) {
	body := `<Error><Code>NoSuchKey</Code><Message>nope</Message><RequestId>r1</RequestId></Error>`
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		return &HttpResponse{StatusCode: 404, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(body))}, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("examplebucket", "nelson")
	_, err := p.Execute(context.Background(), req, http.MethodGet)
	var ossErr *Error
	if !errors.As(err, &ossErr) || ossErr.Code != "NoSuchKey" {
		t.Fatalf("expected NoSuchKey, got %v", err)
	}
}

func TestExecuteDownloadCRC64Mismatch(t *testing.T) {
	payload := "hello world"
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		h := http.Header{}
		h.Set("X-Oss-Hash-Crc64ecma", "1") // deliberately wrong
		h.Set("X-Oss-Request-Id", "r2")
		return &HttpResponse{StatusCode: 200, Header: h, Body: io.NopCloser(strings.NewReader(payload))}, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("examplebucket", "nelson")
	req.flags |= FlagCheckCRC64
	result, err := p.Execute(context.Background(), req, http.MethodGet)
	if err != nil {
		t.Fatalf("Execute should succeed at the classify stage, mismatch surfaces on read: %v", err)
	}
	_, readErr := io.ReadAll(result.Body)
	var ossErr *Error
	if !errors.As(readErr, &ossErr) || ossErr.Code != "ERROR_CRC_INCONSISTENT" {
		t.Fatalf("expected ERROR_CRC_INCONSISTENT while draining body, got %v", readErr)
	}
}

func TestExecuteUploadCRC64MatchesBeforeTouchingResponseBody(t *testing.T) {
	payload := []byte("the quick brown fox")
	h := newCRC64()
	h.Write(payload)
	expected := fmt.Sprintf("%d", h.Sum64())

	transport := &fakeTransport{handler: func(_ int, req *HttpRequest) (*HttpResponse, error) {
		sent, _ := io.ReadAll(req.Body)
		if !bytes.Equal(sent, payload) {
			t.Fatalf("transport received %q, want %q", sent, payload)
		}
		respHeader := http.Header{}
		respHeader.Set("X-Oss-Hash-Crc64ecma", expected)
		return &HttpResponse{StatusCode: 200, Header: respHeader, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	p := newTestPipeline(transport)

	req := NewObjectRequest("examplebucket", "nelson")
	req.flags |= FlagCheckCRC64
	req.body = NewBytesBody(payload)
	result, err := p.Execute(context.Background(), req, http.MethodPut)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	result.Body.Close()
}

func TestExecuteUploadCRC64MismatchFailsWithoutDispatchingAgain(t *testing.T) {
	transport := &fakeTransport{handler: func(_ int, req *HttpRequest) (*HttpResponse, error) {
		io.ReadAll(req.Body) // drain so the BodyPipeline finishes computing its CRC64
		h := http.Header{}
		h.Set("X-Oss-Hash-Crc64ecma", "42")
		return &HttpResponse{StatusCode: 200, Header: h, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	p := newTestPipeline(transport)
	p.Retry = RetryPolicy{MaxRetries: 3, ScaleFactor: 10 * time.Millisecond}

	req := NewObjectRequest("examplebucket", "nelson")
	req.flags |= FlagCheckCRC64
	req.body = NewBytesBody([]byte("payload"))
	_, err := p.Execute(context.Background(), req, http.MethodPut)
	var ossErr *Error
	if !errors.As(err, &ossErr) || ossErr.Code != "ERROR_CRC_INCONSISTENT" {
		t.Fatalf("expected ERROR_CRC_INCONSISTENT, got %v", err)
	}
	// CRC mismatch is an integrity failure, not a transport one: RetryPolicy
	// never sees a 5xx/transport code for it, so it must not be retried.
	if transport.calls != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", transport.calls)
	}
}

func TestExecuteShortCircuitsWhenDisabled(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		t.Fatal("transport must never be invoked while disabled")
		return nil, nil
	}}
	p := newTestPipeline(transport)
	p.Disable()

	req := NewObjectRequest("examplebucket", "nelson")
	_, err := p.Execute(context.Background(), req, http.MethodGet)
	var ossErr *Error
	if !errors.As(err, &ossErr) || ossErr.Code != "ClientDisabled" {
		t.Fatalf("expected ClientDisabled, got %v", err)
	}
}
