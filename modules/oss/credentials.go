// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import "context"

// Credentials are fetched per-request from a CredentialsProvider and never
// cached inside the pipeline.
type Credentials struct {
	AccessKeyID     string
	AccessKeySecret string
	SessionToken    string // optional, set when using STS
}

func (c Credentials) empty() bool {
	return c.AccessKeyID == "" || c.AccessKeySecret == ""
}

// CredentialsProvider resolves Credentials for a single request. Providers
// must be internally thread-safe; they may be called concurrently from
// multiple goroutines and from every retry attempt of the same request.
type CredentialsProvider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// StaticCredentialsProvider always returns the same Credentials, the common
// case for long-lived AccessKey pairs.
type StaticCredentialsProvider struct {
	Credentials Credentials
}

func NewStaticCredentialsProvider(accessKeyID, accessKeySecret, sessionToken string) *StaticCredentialsProvider {
	return &StaticCredentialsProvider{Credentials: Credentials{
		AccessKeyID:     accessKeyID,
		AccessKeySecret: accessKeySecret,
		SessionToken:    sessionToken,
	}}
}

func (p *StaticCredentialsProvider) Retrieve(_ context.Context) (Credentials, error) {
	return p.Credentials, nil
}
