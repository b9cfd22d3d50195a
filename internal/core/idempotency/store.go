// Package idempotency defines the contract for replaying responses of
// repeated mutating requests (X-Idempotency-Key).
package idempotency

import (
	"context"
	"time"
)

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may stay locked before another
// request may reclaim it (the first request most likely crashed).
const StaleAfter = time.Minute

// Replay is the cached HTTP response returned for a repeated request.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
type Store interface {
	// AcquireKey returns:
	//   - (nil, nil) when the key was acquired and the request should run
	//   - (replay, nil) when the operation already completed
	//   - (nil, err) when the key is in use or was used for another request
	AcquireKey(ctx context.Context, key, operation, requestHash string) (*Replay, error)

	// CompleteKey stores a successful response.
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// FailKey stores an error response.
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// CleanupExpired removes expired keys and returns how many were removed.
	CleanupExpired(ctx context.Context) (int64, error)
}

// NormalizeStatus defaults a missing status code to 200.
func NormalizeStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

// NormalizeContentType defaults a missing content type to JSON.
func NormalizeContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}
