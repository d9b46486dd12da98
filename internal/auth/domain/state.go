package domain

import (
	"time"
)

// SessionState is the persisted authentication state for one shell session.
// It is a liveness-checked boolean, not a capability token: possession of
// the file grants nothing unless the owning process is still alive.
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	Timestamp     time.Time `json:"timestamp"`
	PID           int       `json:"pid"`
}
