// Package session owns the persisted authentication state of the client:
// one session record at a time, created on login, lazily expired, and
// extended by a periodic refresh while the process is alive.
package session

import (
	"errors"
	"time"
)

// StorageKey is the fixed name of the single persisted session record,
// shared by every front end so they observe each other's logins.
const StorageKey = "library_session"

var (
	// ErrCredentialsRejected means the remote refused the credentials.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrAuthUnreachable means the authenticator could not be reached.
	ErrAuthUnreachable = errors.New("authentication service unreachable")
)

// Session is a time-bounded authenticated client context.
type Session struct {
	Token     string    `json:"sessionId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"loginTime"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidAt reports whether the session is usable at the given instant.
// A session past its expiry is treated as absent wherever it is read.
func (s Session) ValidAt(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

// Slot is the single persistence location for the session record.
// Implementations are last-writer-wins; no locking across processes.
type Slot interface {
	Load() (Session, bool, error)
	Save(Session) error
	Clear() error
}
