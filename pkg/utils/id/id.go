// Package id provides unique ID generation for resume-qa.
//
//	reqID := id.NewUUID()   // e.g., "550e8400-e29b-41d4-a716-446655440000"
//	chunk := id.NewULID()   // e.g., "01ARZ3NDEKTSV4RRFFQ69G5FAV"
//
// ULIDs are monotonic within the process, so ids minted in one indexing
// run sort in creation order.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewUUID generates a new random UUID v4 string.
func NewUUID() string {
	return uuid.NewString()
}

// NewULID generates a new ULID string.
func NewULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
