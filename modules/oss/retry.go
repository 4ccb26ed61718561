// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package oss

import "time"

// Transport-error codes RetryPolicy recognizes, spelled out as an
// enumeration per spec.md §4.5 rather than tied to any one HTTP client
// library's numeric error codes.
const (
	ErrConnectFailed = "ConnectFailed"
	ErrPartialFile   = "PartialFile"
	ErrWriteError    = "WriteError"
	ErrTimedOut      = "TimedOut"
	ErrGotNothing    = "GotNothing"
	ErrSendError     = "SendError"
	ErrRecvError     = "RecvError"
)

var retryableTransportCodes = map[string]bool{
	ErrConnectFailed: true,
	ErrPartialFile:   true,
	ErrWriteError:    true,
	ErrTimedOut:      true,
	ErrGotNothing:    true,
	ErrSendError:     true,
	ErrRecvError:     true,
}

// RetryPolicy decides whether a failed attempt should be retried and how
// long to sleep before the next one (spec.md §4.5: exponential backoff
// without jitter, sensitive to both HTTP status and transport error code).
type RetryPolicy struct {
	MaxRetries  int
	ScaleFactor time.Duration
}

// DefaultRetryPolicy is 3 retries at a 300ms base, matching the teacher's
// own HTTP client defaults in modules/oss/oss.go.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, ScaleFactor: 300 * time.Millisecond}

func (p RetryPolicy) maxRetries() int {
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return DefaultRetryPolicy.MaxRetries
}

func (p RetryPolicy) scaleFactor() time.Duration {
	if p.ScaleFactor > 0 {
		return p.ScaleFactor
	}
	return DefaultRetryPolicy.ScaleFactor
}

// ShouldRetry is true iff attempt < maxRetries and the failure is a 5xx
// status or one of the fixed transport-error codes.
func (p RetryPolicy) ShouldRetry(statusCode int, code string, attempt int) bool {
	if attempt >= p.maxRetries() {
		return false
	}
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return retryableTransportCodes[code]
}

// DelayMs returns (1 << attempt) * scaleFactor: monotonically
// non-decreasing, bounded by (1 << maxRetries) * scaleFactor.
func (p RetryPolicy) DelayMs(attempt int) time.Duration {
	return (1 << attempt) * p.scaleFactor()
}
