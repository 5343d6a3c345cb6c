// Package instanceid generates the stable per-context identifier ("Context
// Identity"). It is used only for observability and as a label on bus
// messages; leadership is decided by leaderlock, never by comparing
// identities.
package instanceid

import "github.com/google/uuid"

// New generates a fresh context identity.
func New() string {
	return uuid.NewString()
}

// NewCorrelationID generates a fresh correlation id for a forwarded query,
// keyed into the pending-query table. Correlation ids are unique across
// the lifetime of a context: uuid.NewString() draws from a CSPRNG, so
// collisions within one process's lifetime are not a practical concern.
func NewCorrelationID() string {
	return uuid.NewString()
}
