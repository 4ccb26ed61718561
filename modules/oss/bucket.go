// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
)

// ListBucketsResult is GetService/ListBuckets' decoded body.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/listbuckets
type ListBucketsResult struct {
	XMLName     xml.Name        `xml:"ListAllMyBucketsResult"`
	Prefix      string          `xml:"Prefix"`
	Marker      string          `xml:"Marker"`
	MaxKeys     int             `xml:"MaxKeys"`
	IsTruncated bool            `xml:"IsTruncated"`
	NextMarker  string          `xml:"NextMarker"`
	Owner       Owner           `xml:"Owner"`
	Buckets     []BucketSummary `xml:"Buckets>Bucket"`
}

// BucketSummary is one entry of ListBucketsResult.Buckets.
type BucketSummary struct {
	XMLName      xml.Name `xml:"Bucket"`
	Name         string   `xml:"Name"`
	Location     string   `xml:"Location"`
	CreationDate string   `xml:"CreationDate"`
	StorageClass string   `xml:"StorageClass"`
}

// ListBuckets implements ListBuckets/GetService: a service-level GET against
// the bare endpoint, with no bucket and no key (spec.md §4.2's canonical
// resource collapses to "/" when both are empty).
// https://www.alibabacloud.com/help/zh/oss/developer-reference/listbuckets
func (c *Client) ListBuckets(ctx context.Context, marker string) (*ListBucketsResult, error) {
	req := NewServiceRequest()
	if marker != "" {
		req.setParameter("marker", marker)
	}
	result, err := c.pipeline.Execute(ctx, req, http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	var out ListBucketsResult
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("oss: decode list-buckets result: %w", err)
	}
	return &out, nil
}

// BucketInfoResult is GetBucketInfo's decoded body.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/getbucketinfo
type BucketInfoResult struct {
	XMLName xml.Name `xml:"BucketInfo"`
	Bucket  struct {
		Name             string `xml:"Name"`
		Location         string `xml:"Location"`
		CreationDate     string `xml:"CreationDate"`
		ExtranetEndpoint string `xml:"ExtranetEndpoint"`
		IntranetEndpoint string `xml:"IntranetEndpoint"`
		StorageClass     string `xml:"StorageClass"`
		Owner            Owner  `xml:"Owner"`
	} `xml:"Bucket"`
}

// GetBucketInfo fetches bucket metadata via the "bucketInfo" subresource
// (present in the signing whitelist, canonical.go's subresourceWhitelist).
func (c *Client) GetBucketInfo(ctx context.Context) (*BucketInfoResult, error) {
	req := NewBucketRequest(c.bucket)
	req.setParameter("bucketInfo", "")
	result, err := c.pipeline.Execute(ctx, req, http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	var out BucketInfoResult
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("oss: decode bucket-info result: %w", err)
	}
	return &out, nil
}

// CORSRule is one rule of a bucket's CORS configuration.
type CORSRule struct {
	XMLName       xml.Name `xml:"CORSRule"`
	AllowedOrigin []string `xml:"AllowedOrigin"`
	AllowedMethod []string `xml:"AllowedMethod"`
	AllowedHeader []string `xml:"AllowedHeader,omitempty"`
	ExposeHeader  []string `xml:"ExposeHeader,omitempty"`
	MaxAgeSeconds int      `xml:"MaxAgeSeconds,omitempty"`
}

type corsConfigurationXML struct {
	XMLName   xml.Name   `xml:"CORSConfiguration"`
	CORSRules []CORSRule `xml:"CORSRule"`
}

// PutBucketCors replaces the bucket's CORS configuration wholesale, the only
// mode the API supports (there is no incremental update).
// https://www.alibabacloud.com/help/zh/oss/developer-reference/putbucketcors
func (c *Client) PutBucketCors(ctx context.Context, rules []CORSRule) error {
	body, err := xml.Marshal(&corsConfigurationXML{CORSRules: rules})
	if err != nil {
		return fmt.Errorf("oss: marshal cors configuration: %w", err)
	}
	req := NewBucketRequest(c.bucket)
	req.setParameter("cors", "")
	req.body = NewBytesBody(body)
	req.flags |= FlagContentMD5
	result, err := c.pipeline.Execute(ctx, req, http.MethodPut)
	if err != nil {
		return err
	}
	return result.Body.Close()
}

// GetBucketCors reads back the bucket's CORS configuration.
// https://www.alibabacloud.com/help/zh/oss/developer-reference/getbucketcors
func (c *Client) GetBucketCors(ctx context.Context) ([]CORSRule, error) {
	req := NewBucketRequest(c.bucket)
	req.setParameter("cors", "")
	result, err := c.pipeline.Execute(ctx, req, http.MethodGet)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()
	var out corsConfigurationXML
	if err := xml.NewDecoder(result.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("oss: decode cors configuration: %w", err)
	}
	return out.CORSRules, nil
}
