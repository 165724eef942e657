package idempotency

import (
	"context"
	"time"
)

// Status values for idempotency records.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record is the cached outcome of a previously executed mutation. Only 2xx
// outcomes ever reach DONE; a failed attempt leaves the key open for retry.
type Record struct {
	Key         string            `json:"key" dynamodbav:"idempotency_key"` // PK
	Status      string            `json:"status" dynamodbav:"status"`
	StatusCode  int               `json:"status_code,omitempty" dynamodbav:"response_status,omitempty"`
	Body        []byte            `json:"body,omitempty" dynamodbav:"response_body,omitempty"` // small responses only; else use S3 pointer
	Headers     map[string]string `json:"headers,omitempty" dynamodbav:"response_headers,omitempty"`
	CachedAt    time.Time         `json:"cached_at" dynamodbav:"cached_at"`
	ExpiresAt   int64             `json:"expires_at" dynamodbav:"expires_at"` // TTL epoch seconds
}

// Store is the key -> outcome contract shared by all backends. Implementations
// must make PutIfAbsent atomic with respect to other writers; it is the
// in-flight marker that closes the concurrent-duplicate window.
type Store interface {
	// Get returns (nil, nil) when the key is absent or expired.
	Get(ctx context.Context, key string) (*Record, error)

	// PutIfAbsent creates rec under key only if no record exists.
	// Returns created=false when a record is already present.
	PutIfAbsent(ctx context.Context, key string, rec Record, ttl time.Duration) (bool, error)

	// Complete overwrites the record with the final outcome.
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error

	// Delete releases the key, e.g. after a non-2xx outcome.
	Delete(ctx context.Context, key string) error
}
