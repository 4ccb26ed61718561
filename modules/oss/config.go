// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientOptions is the configuration surface spec.md §6 names, populated
// either by a struct literal (matching NewBucketOptions in
// modules/oss/oss.go) or decoded from TOML via LoadConfig.
type ClientOptions struct {
	Endpoint        string `toml:"endpoint"`
	SharedEndpoint  string `toml:"shared_endpoint,omitempty"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	AccessKeySecret string `toml:"access_key_secret"`
	SessionToken    string `toml:"session_token,omitempty"`

	UserAgent      string `toml:"user_agent,omitempty"`
	IsCname        bool   `toml:"is_cname,omitempty"`
	EnableCRC64    *bool  `toml:"enable_crc64,omitempty"`
	VerifySSL      bool   `toml:"verify_ssl,omitempty"`
	MaxConnections int    `toml:"max_connections,omitempty"`
	PartSize       int64  `toml:"part_size,omitempty"`

	ConnectTimeoutMs int `toml:"connect_timeout_ms,omitempty"`
	RequestTimeoutMs int `toml:"request_timeout_ms,omitempty"`

	ProxyScheme   string `toml:"proxy_scheme,omitempty"`
	ProxyHost     string `toml:"proxy_host,omitempty"`
	ProxyPort     int    `toml:"proxy_port,omitempty"`
	ProxyUser     string `toml:"proxy_user,omitempty"`
	ProxyPassword string `toml:"proxy_password,omitempty"`

	MaxRetries     int `toml:"max_retries,omitempty"`
	RetryScaleMs   int `toml:"retry_scale_ms,omitempty"`
	SendRateLimit  int `toml:"send_rate_limit,omitempty"` // bytes/sec, 0 disables
	RecvRateLimit  int `toml:"recv_rate_limit,omitempty"` // bytes/sec, 0 disables
}

func (o *ClientOptions) connectTimeout() time.Duration {
	if o.ConnectTimeoutMs > 0 {
		return time.Duration(o.ConnectTimeoutMs) * time.Millisecond
	}
	return 5 * time.Second
}

func (o *ClientOptions) requestTimeout() time.Duration {
	if o.RequestTimeoutMs > 0 {
		return time.Duration(o.RequestTimeoutMs) * time.Millisecond
	}
	return 10 * time.Second
}

func (o *ClientOptions) maxConnections() int {
	if o.MaxConnections > 0 {
		return o.MaxConnections
	}
	return 16
}

func (o *ClientOptions) enableCRC64() bool {
	if o.EnableCRC64 != nil {
		return *o.EnableCRC64
	}
	return true
}

func (o *ClientOptions) retryPolicy() RetryPolicy {
	p := DefaultRetryPolicy
	if o.MaxRetries > 0 {
		p.MaxRetries = o.MaxRetries
	}
	if o.RetryScaleMs > 0 {
		p.ScaleFactor = time.Duration(o.RetryScaleMs) * time.Millisecond
	}
	return p
}

// LoadConfig decodes a TOML file into ClientOptions, mirroring
// pkg/serve/httpserver/config.go's NewServerConfig / pkg/serve/config.go's
// OSS struct shape in the teacher.
func LoadConfig(path string) (*ClientOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts ClientOptions
	if err := toml.Unmarshal(data, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}
