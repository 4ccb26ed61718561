// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oss.toml")
	data := `
endpoint = "oss-cn-hangzhou.aliyuncs.com"
bucket = "examplebucket"
access_key_id = "ak-id"
access_key_secret = "ak-secret"
max_connections = 32
enable_crc64 = false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	opts, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.Endpoint != "oss-cn-hangzhou.aliyuncs.com" || opts.Bucket != "examplebucket" {
		t.Fatalf("unexpected config: %+v", opts)
	}
	if opts.maxConnections() != 32 {
		t.Fatalf("got max connections %d, want 32", opts.maxConnections())
	}
	if opts.enableCRC64() {
		t.Fatal("enable_crc64 = false should be honored, not defaulted to true")
	}
}

func TestClientOptionsDefaults(t *testing.T) {
	var opts ClientOptions
	if opts.maxConnections() != 16 {
		t.Fatalf("default max connections: got %d, want 16", opts.maxConnections())
	}
	if !opts.enableCRC64() {
		t.Fatal("CRC64 must default to enabled when unset")
	}
	if opts.connectTimeout() != 5*time.Second {
		t.Fatalf("default connect timeout: got %v", opts.connectTimeout())
	}
	if opts.requestTimeout() != 10*time.Second {
		t.Fatalf("default request timeout: got %v", opts.requestTimeout())
	}
	rp := opts.retryPolicy()
	if rp.MaxRetries != DefaultRetryPolicy.MaxRetries || rp.ScaleFactor != DefaultRetryPolicy.ScaleFactor {
		t.Fatalf("retry policy should fall back to defaults, got %+v", rp)
	}
}
