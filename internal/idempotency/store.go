// Package idempotency guards duplicate publish submissions behind a keyed
// lock/cache with TTL. The store is best-effort: it is consulted before
// dispatch and written after, but a failing backend never fails a publish.
package idempotency

import (
	"context"
	"time"
)

// Record states.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Acquisition is the outcome of TryAcquire. When Acquired is false, Status
// tells whether the original request is still in flight or finished, and
// Response carries the cached terminal envelope for completed records.
type Acquisition struct {
	Acquired bool
	Status   string
	Response []byte
}

// Store is the keyed lock/cache contract. TryAcquire must be atomic
// check-and-set: at most one caller ever holds a processing record for a
// key at a time. Complete stores the terminal response (success or error)
// and refreshes the TTL.
type Store interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Acquisition, error)
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
