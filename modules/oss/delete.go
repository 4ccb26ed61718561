// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
)

type deleteXML struct {
	XMLName xml.Name        `xml:"Delete"`
	Objects []*DeleteObject `xml:"Object"` // Objects to delete
	Quiet   bool            `xml:"Quiet"`  // Flag of quiet mode.
}

// DeleteObject defines the struct for deleting object
type DeleteObject struct {
	XMLName   xml.Name `xml:"Object"`
	Key       string   `xml:"Key"`                 // Object name
	VersionId string   `xml:"VersionId,omitempty"` // Object VersionId
}

// DeleteObjectsResult defines result of DeleteObjects request
type DeleteObjectsResult struct {
	XMLName        xml.Name
	DeletedObjects []string // Deleted object key list
}

// DeletedKeyInfo defines object delete info
type DeletedKeyInfo struct {
	XMLName               xml.Name `xml:"Deleted"`
	Key                   string   `xml:"Key"`                   // Object key
	VersionId             string   `xml:"VersionId"`             // VersionId
	DeleteMarker          bool     `xml:"DeleteMarker"`          // Object DeleteMarker
	DeleteMarkerVersionId string   `xml:"DeleteMarkerVersionId"` // Object DeleteMarkerVersionId
}

type DeleteObjectVersionsResult struct {
	XMLName              xml.Name         `xml:"DeleteResult"`
	DeletedObjectsDetail []DeletedKeyInfo `xml:"Deleted"` // Deleted object detail info
}

// Owner defines Bucket/Object's owner
type Owner struct {
	XMLName     xml.Name `xml:"Owner"`
	ID          string   `xml:"ID"`          // Owner ID
	DisplayName string   `xml:"DisplayName"` // Owner's display name
}

const maxDeleteBatch = 200

// deleteMultipleObjectsOnce implements one DeleteMultipleObjects POST
// (spec.md §1's "thin specialization over the core"), batched by the
// caller at maxDeleteBatch keys.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/deletemultipleobjects
func (c *Client) deleteMultipleObjectsOnce(ctx context.Context, objectKeys []string) error {
	var dxml deleteXML
	for _, key := range objectKeys {
		dxml.Objects = append(dxml.Objects, &DeleteObject{Key: key})
	}
	xmlData, err := xml.Marshal(&dxml)
	if err != nil {
		return fmt.Errorf("oss: marshal delete-objects request: %w", err)
	}

	req := NewBucketRequest(c.bucket)
	req.setParameter("delete", "")
	req.flags |= FlagContentMD5
	req.setHeader("Content-Type", "application/xml")
	req.body = NewBytesBody(xmlData)

	result, err := c.pipeline.Execute(ctx, req, http.MethodPost)
	if err != nil {
		return err
	}
	defer result.Body.Close()
	var out DeleteObjectVersionsResult
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return fmt.Errorf("oss: decode delete-objects result: %w", err)
	}
	return nil
}

// DeleteMultipleObjects batches the server's 200-key-per-request limit
// (teacher's DeleteMultipleObjects).
func (c *Client) DeleteMultipleObjects(ctx context.Context, objectKeys []string) error {
	for len(objectKeys) > 0 {
		batch := min(len(objectKeys), maxDeleteBatch)
		if err := c.deleteMultipleObjectsOnce(ctx, objectKeys[:batch]); err != nil {
			return err
		}
		objectKeys = objectKeys[batch:]
	}
	return nil
}
