// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"golang.org/x/time/rate"
)

// ProgressFunc is invoked as (bytesSoFar, totalBytes) after each chunk;
// totalBytes is -1 when unknown.
type ProgressFunc func(bytesSoFar, totalBytes int64)

// bodyPipelineOptions configures what BodyPipeline computes as bytes flow
// through it (spec.md §4.4).
type bodyPipelineOptions struct {
	computeMD5   bool
	computeCRC64 bool
	limiter      *rate.Limiter
	progress     ProgressFunc
	total        int64 // -1 if unknown
}

// BodyPipeline wraps a request or response body stream, computing length,
// MD5 and CRC64 digests in a single pass as the transport reads it.
type BodyPipeline struct {
	ctx     context.Context
	r       io.Reader
	md5     hash.Hash
	crc64   hash.Hash64
	opts    bodyPipelineOptions
	read    int64
	closer  io.Closer
}

// NewBodyPipeline wraps r. If r is also an io.Closer, Close forwards to it.
func NewBodyPipeline(ctx context.Context, r io.Reader, opts bodyPipelineOptions) *BodyPipeline {
	bp := &BodyPipeline{ctx: ctx, r: r, opts: opts}
	if opts.computeMD5 {
		bp.md5 = md5.New()
	}
	if opts.computeCRC64 {
		bp.crc64 = newCRC64()
	}
	if c, ok := r.(io.Closer); ok {
		bp.closer = c
	}
	return bp
}

func (bp *BodyPipeline) Read(p []byte) (int, error) {
	if err := bp.ctx.Err(); err != nil {
		return 0, err
	}
	if bp.opts.limiter != nil && len(p) > 0 {
		n := len(p)
		if int64(n) > int64(bp.opts.limiter.Burst()) {
			n = bp.opts.limiter.Burst()
		}
		if err := bp.opts.limiter.WaitN(bp.ctx, n); err != nil {
			return 0, err
		}
		p = p[:n]
	}
	n, err := bp.r.Read(p)
	if n > 0 {
		if bp.md5 != nil {
			bp.md5.Write(p[:n])
		}
		if bp.crc64 != nil {
			bp.crc64.Write(p[:n])
		}
		bp.read += int64(n)
		if bp.opts.progress != nil {
			bp.opts.progress(bp.read, bp.opts.total)
		}
	}
	return n, err
}

func (bp *BodyPipeline) Close() error {
	if bp.closer != nil {
		return bp.closer.Close()
	}
	return nil
}

// BytesRead returns the number of bytes the pipeline has seen so far.
func (bp *BodyPipeline) BytesRead() int64 {
	return bp.read
}

// MD5Base64 returns the base64-encoded MD5 digest; empty if MD5 wasn't
// requested.
func (bp *BodyPipeline) MD5Base64() string {
	if bp.md5 == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(bp.md5.Sum(nil))
}

// CRC64Hex returns the hex-encoded CRC64 (ECMA) digest; empty if CRC64
// wasn't requested. The server's x-oss-hash-crc64ecma header is a decimal
// uint64, so callers compare CRC64Uint64 against it, not this string.
func (bp *BodyPipeline) CRC64Hex() string {
	if bp.crc64 == nil {
		return ""
	}
	return hex.EncodeToString(bp.crc64.Sum(nil))
}

// CRC64Uint64 returns the CRC64 (ECMA) digest as the same uint64 form the
// server reports in x-oss-hash-crc64ecma.
func (bp *BodyPipeline) CRC64Uint64() uint64 {
	if bp.crc64 == nil {
		return 0
	}
	return bp.crc64.Sum64()
}

// determineLength implements spec.md §4.4's Content-Length contract: use the
// size the BodySource reports when it knows it (Len() >= 0, seekable or not),
// otherwise drain into a buffer so Content-Length is never silently omitted.
func determineLength(body BodySource) (io.ReadCloser, int64, error) {
	if n := body.Len(); n >= 0 {
		r, err := body.Open()
		return r, n, err
	}
	r, err := body.Open()
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(bytes.NewReader(buf)), int64(len(buf)), nil
}

// computeMD5OfBody does the dedicated pre-pass the Signer needs: the
// Content-MD5 header must exist before the canonical string is built, which
// means it can't be discovered lazily from the same pass that streams the
// body to the transport. Small bodies (XML envelopes) make this cheap;
// large file bodies pay one extra read, exactly like computing
// Content-Length on a non-seekable stream does.
func computeMD5OfBody(body BodySource) (string, error) {
	r, err := body.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	bp := NewBodyPipeline(context.Background(), r, bodyPipelineOptions{computeMD5: true})
	if _, err := io.Copy(io.Discard, bp); err != nil {
		return "", err
	}
	return bp.MD5Base64(), nil
}

// crcVerifyingBody wraps a response body already flowing through a
// BodyPipeline and compares the finished CRC64 against the server-declared
// digest the moment the stream reaches EOF (spec.md §4.6 step 6). This
// keeps the check inline with the single streaming pass instead of
// buffering the whole response to verify up front.
type crcVerifyingBody struct {
	*BodyPipeline
	expected  uint64
	requestID string
	checked   bool
}

func (b *crcVerifyingBody) Read(p []byte) (int, error) {
	n, err := b.BodyPipeline.Read(p)
	if err == io.EOF && !b.checked {
		b.checked = true
		if got := b.BodyPipeline.CRC64Uint64(); got != b.expected {
			return n, &Error{
				Code: "ERROR_CRC_INCONSISTENT",
				Message: fmt.Sprintf(
					"crc64 mismatch: expected %d, got %d, transferred %d bytes, request-id=%s",
					b.expected, got, b.BodyPipeline.BytesRead(), b.requestID,
				),
			}
		}
	}
	return n, err
}
