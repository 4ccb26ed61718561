// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// bytesBody is a BodySource over an in-memory buffer; always seekable since
// Open can hand back a fresh reader any number of times.
type bytesBody struct {
	data []byte
}

// NewBytesBody wraps data as a rewindable BodySource, the common case for
// small request payloads (XML envelopes, presigned-upload bodies).
func NewBytesBody(data []byte) BodySource {
	return &bytesBody{data: data}
}

func (b *bytesBody) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *bytesBody) Len() int64    { return int64(len(b.data)) }
func (b *bytesBody) Seekable() bool { return true }

// fileBody is a BodySource backed by a path on disk; each Open reopens the
// file from the start, so it's rewindable for retries.
type fileBody struct {
	path string
	size int64
}

// NewFileBody wraps the file at path as a rewindable BodySource.
func NewFileBody(path string) (BodySource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &fileBody{path: path, size: fi.Size()}, nil
}

func (b *fileBody) Open() (io.ReadCloser, error) {
	return os.Open(b.path)
}

func (b *fileBody) Len() int64    { return b.size }
func (b *fileBody) Seekable() bool { return true }

// errBodyNotRewindable is returned by a single-use BodySource's second Open.
var errBodyNotRewindable = errors.New("oss: request body cannot be reopened")

// readerBody is a BodySource over a single-use io.Reader (e.g. a network
// pipe); it cannot be reopened, so retries of a request carrying one are
// refused per spec.md §4.5.
type readerBody struct {
	r        io.Reader
	size     int64
	opened   bool
}

// NewReaderBody wraps r as a non-seekable BodySource. size may be -1 if
// unknown; the BodyPipeline will drain it once to compute Content-Length.
func NewReaderBody(r io.Reader, size int64) BodySource {
	return &readerBody{r: r, size: size}
}

func (b *readerBody) Open() (io.ReadCloser, error) {
	if b.opened {
		return nil, errBodyNotRewindable
	}
	b.opened = true
	if rc, ok := b.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(b.r), nil
}

func (b *readerBody) Len() int64    { return b.size }
func (b *readerBody) Seekable() bool { return false }
