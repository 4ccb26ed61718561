// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

func newTestClient(transport Transport) *Client {
	return &Client{
		bucket:     "examplebucket",
		partSize:   defaultPartSize,
		pipeline:   newTestPipeline(transport),
		dispatcher: NewAsyncDispatcher(context.Background(), 4),
	}
}

func TestClientStat(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		h := http.Header{}
		h.Set("Content-Length", "42")
		h.Set("X-Oss-Hash-Crc64ecma", "999")
		h.Set("Content-Type", "text/plain")
		return &HttpResponse{StatusCode: 200, Header: h, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	c := newTestClient(transport)

	st, err := c.Stat(context.Background(), "nelson")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if st.Size != 42 || st.Crc64 != "999" || st.Mime != "text/plain" {
		t.Fatalf("unexpected Stat result: %+v", st)
	}
}

func TestClientStatNotFound(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		return &HttpResponse{StatusCode: 404, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	c := newTestClient(transport)

	_, err := c.Stat(context.Background(), "missing")
	if !os.IsNotExist(err) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestClientPutAndDelete(t *testing.T) {
	var lastMethod string
	transport := &fakeTransport{handler: func(_ int, req *HttpRequest) (*HttpResponse, error) {
		lastMethod = req.Method
		io.ReadAll(req.Body)
		h := http.Header{}
		if req.Method == http.MethodPut {
			hh := newCRC64()
			hh.Write([]byte("payload"))
			h.Set("X-Oss-Hash-Crc64ecma", fmt.Sprintf("%d", hh.Sum64()))
		}
		return &HttpResponse{StatusCode: 200, Header: h, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	c := newTestClient(transport)

	if err := c.Put(context.Background(), "nelson", strings.NewReader("payload"), "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if lastMethod != http.MethodPut {
		t.Fatalf("got method %s", lastMethod)
	}

	if err := c.Delete(context.Background(), "nelson"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if lastMethod != http.MethodDelete {
		t.Fatalf("got method %s", lastMethod)
	}
}

func TestClientDeleteMissingIsNotAnError(t *testing.T) {
	transport := &fakeTransport{handler: func(int, *HttpRequest) (*HttpResponse, error) {
		return &HttpResponse{StatusCode: 404, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}
	c := newTestClient(transport)
	if err := c.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete of a missing key must not error, got %v", err)
	}
}
