// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"time"
)

// timeoutAbort bounds AbortMultipartUpload cleanup calls, run on a detached
// context so a cancelled upload's context cannot also cancel its own cleanup.
const timeoutAbort = 30 * time.Second

// size constants
const (
	Byte int64 = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
	TiByte
	PiByte
	EiByte
)

const (
	MaxRecvBytes = 16 << 20 // 16M
	MaxSendBytes = math.MaxInt32
)

const (
	// https://help.aliyun.com/document_detail/31850.html
	minPartSize     = 100 * 1024
	maxPartSize     = 5 * GiByte
	defaultPartSize = GiByte
)

// InitiateMultipartUploadResult defines result of InitiateMultipartUpload request
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`   // Bucket name
	Key      string   `xml:"Key"`      // Object name to upload
	UploadID string   `xml:"UploadId"` // Generated UploadId
}

// UploadPart defines the upload/copy part
type UploadPart struct {
	XMLName    xml.Name `xml:"Part"`
	PartNumber int      `xml:"PartNumber"` // Part number
	ETag       string   `xml:"ETag"`       // ETag value of the part's data
}

type completeMultipartUploadXML struct {
	XMLName xml.Name     `xml:"CompleteMultipartUpload"`
	Part    []UploadPart `xml:"Part"`
}

// CompleteMultipartUploadResult defines result object of CompleteMultipartUploadRequest
type CompleteMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"` // Object URL
	Bucket   string   `xml:"Bucket"`   // Bucket name
	ETag     string   `xml:"ETag"`     // Object ETag
	Key      string   `xml:"Key"`      // Object name
}

type UploadParts []UploadPart

func (slice UploadParts) Len() int           { return len(slice) }
func (slice UploadParts) Less(i, j int) bool { return slice[i].PartNumber < slice[j].PartNumber }
func (slice UploadParts) Swap(i, j int)      { slice[i], slice[j] = slice[j], slice[i] }

type chunk struct {
	number int   // chunk number
	offset int64 // chunk offset
	size   int64 // chunk size
}

func calculateChunk(size, partSize int64) []chunk {
	if size%partSize < minPartSize {
		partSize -= minPartSize
	}
	n := int(size / partSize)
	chunks := make([]chunk, 0, n+1)
	var offset int64
	for i := range n {
		chunks = append(chunks, chunk{number: i + 1, offset: offset, size: partSize})
		offset += partSize
	}
	if offset < size {
		chunks = append(chunks, chunk{number: n + 1, offset: offset, size: size - offset})
	}
	return chunks
}

// initiateMultipartUpload implements InitiateMultipartUpload.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/initiatemultipartupload
func (c *Client) initiateMultipartUpload(ctx context.Context, resourcePath string, mime string) (*InitiateMultipartUploadResult, error) {
	req := NewObjectRequest(c.bucket, resourcePath)
	req.setParameter("uploads", "")
	if mime != "" {
		req.setHeader("Content-Type", mime)
	}

	result, err := c.pipeline.Execute(ctx, req, http.MethodPost)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	var out InitiateMultipartUploadResult
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("oss: decode initiate-multipart-upload result: %w", err)
	}
	return &out, nil
}

// abortMultipartUpload implements AbortMultipartUpload. It deliberately
// runs on a fresh background context with its own short timeout: if the
// original upload failed because its context was cancelled, cleanup must
// not inherit that same cancellation.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/abortmultipartupload
func (c *Client) abortMultipartUpload(resourcePath string, mur *InitiateMultipartUploadResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutAbort)
	defer cancel()

	req := NewObjectRequest(c.bucket, resourcePath)
	req.setParameter("uploadId", mur.UploadID)

	result, err := c.pipeline.Execute(ctx, req, http.MethodDelete)
	if err != nil {
		return err
	}
	return result.Body.Close()
}

// completeMultipartUpload implements CompleteMultipartUpload.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/completemultipartupload
func (c *Client) completeMultipartUpload(ctx context.Context, resourcePath string, mur *InitiateMultipartUploadResult, uploadParts []UploadPart) error {
	sort.Sort(UploadParts(uploadParts))

	body, err := xml.Marshal(&completeMultipartUploadXML{Part: uploadParts})
	if err != nil {
		return err
	}

	req := NewObjectRequest(c.bucket, resourcePath)
	req.setParameter("uploadId", mur.UploadID)
	req.body = NewBytesBody(body)

	result, err := c.pipeline.Execute(ctx, req, http.MethodPost)
	if err != nil {
		return err
	}
	defer result.Body.Close()
	var out CompleteMultipartUploadResult
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return fmt.Errorf("oss: decode complete-multipart-upload result: %w", err)
	}
	return nil
}

// uploadPart implements UploadPart.
// https://www.alibabacloud.com/help/en/object-storage-service/latest/uploadpart
func (c *Client) uploadPart(ctx context.Context, resourcePath string, reader io.Reader, size int64, mur *InitiateMultipartUploadResult, k chunk) (UploadPart, error) {
	result := UploadPart{PartNumber: k.number}

	req := NewObjectRequest(c.bucket, resourcePath)
	req.setParameter("partNumber", fmt.Sprintf("%d", k.number))
	req.setParameter("uploadId", mur.UploadID)
	req.flags |= FlagCheckCRC64
	req.body = NewReaderBody(reader, size)

	out, err := c.pipeline.Execute(ctx, req, http.MethodPut)
	if err != nil {
		return result, err
	}
	defer out.Body.Close()
	result.ETag = out.Header.Get("ETag")
	return result, nil
}

// LinearUpload picks PutObject for small objects and MultipartUpload for
// anything at or above maxPartSize, uploading parts sequentially off the
// single input stream (teacher's LinearUpload in modules/oss/multipart.go).
func (c *Client) LinearUpload(ctx context.Context, resourcePath string, r io.Reader, size int64, mime string) error {
	if size < maxPartSize {
		return c.Put(ctx, resourcePath, r, mime)
	}
	chunks := calculateChunk(size, c.partSize)
	if len(chunks) < 2 {
		return fmt.Errorf("oss: bad chunk plan: size=%d chunks=%d", size, len(chunks))
	}
	mur, err := c.initiateMultipartUpload(ctx, resourcePath, mime)
	if err != nil {
		return err
	}
	parts := make([]UploadPart, len(chunks))
	for i, k := range chunks {
		u, err := c.uploadPart(ctx, resourcePath, io.LimitReader(r, k.size), k.size, mur, k)
		if err != nil {
			_ = c.abortMultipartUpload(resourcePath, mur)
			return err
		}
		parts[i] = u
	}
	if err := c.completeMultipartUpload(ctx, resourcePath, mur, parts); err != nil {
		_ = c.abortMultipartUpload(resourcePath, mur)
		return fmt.Errorf("oss: complete multipart upload: %w", err)
	}
	return nil
}

// StartUpload uploads a file on disk, fanning part uploads out across the
// AsyncDispatcher (C9) instead of the unbounded goroutine-per-part loop the
// teacher's upload.go used, so the number of concurrent OSS connections
// stays within maxConnections.
func (c *Client) StartUpload(ctx context.Context, resourcePath, filePath string, mime string) error {
	fi, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("oss: stat %s: %w", filePath, err)
	}
	size := fi.Size()
	if size <= c.partSize {
		fd, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer fd.Close()
		return c.Put(ctx, resourcePath, fd, mime)
	}

	chunks := calculateChunk(size, c.partSize)
	if len(chunks) < 2 {
		return fmt.Errorf("oss: bad chunk plan: size=%d chunks=%d", size, len(chunks))
	}
	mur, err := c.initiateMultipartUpload(ctx, resourcePath, mime)
	if err != nil {
		return err
	}

	parts := make([]UploadPart, len(chunks))
	errs := make(chan error, len(chunks))
	results := make(chan UploadPart, len(chunks))

	for _, k := range chunks {
		k := k
		err := c.dispatcher.Submit(func(taskCtx context.Context) (*Result, error) {
			fd, err := os.Open(filePath)
			if err != nil {
				return nil, err
			}
			defer fd.Close()
			if _, err := fd.Seek(k.offset, io.SeekStart); err != nil {
				return nil, err
			}
			part, err := c.uploadPart(taskCtx, resourcePath, io.LimitReader(fd, k.size), k.size, mur, k)
			if err != nil {
				return nil, fmt.Errorf("upload part-%d: %w", k.number, err)
			}
			results <- part
			return nil, nil
		}, func(_ *Result, err error) {
			if err != nil {
				errs <- err
			}
		})
		if err != nil {
			_ = c.abortMultipartUpload(resourcePath, mur)
			return err
		}
	}

	for i := 0; i < len(chunks); i++ {
		select {
		case part := <-results:
			parts[part.PartNumber-1] = part
		case err := <-errs:
			_ = c.abortMultipartUpload(resourcePath, mur)
			return err
		}
	}

	if err := c.completeMultipartUpload(ctx, resourcePath, mur, parts); err != nil {
		_ = c.abortMultipartUpload(resourcePath, mur)
		return fmt.Errorf("oss: complete multipart upload: %w", err)
	}
	return nil
}
