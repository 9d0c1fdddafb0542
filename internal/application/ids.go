package application

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	// one monotonic source keeps ids minted in the same millisecond ordered
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string for run and history identifiers
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
