package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sdnegeri1godegan/library/pkg/api"
)

const defaultTTL = 30 * time.Minute

// AuthAPI is the slice of the dispatcher the manager needs. Satisfied by
// *api.Client.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ValidateSession(ctx context.Context, token string) (bool, error)
}

// Manager is the single source of truth for "is this client authenticated,
// and with what credential". All mutations go through one Slot.
type Manager struct {
	api    AuthAPI
	slot   Slot
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL overrides the default 30 minute session lifetime.
func WithTTL(d time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = d }
}

// WithClock injects a time source (tests).
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager wires the manager to a dispatcher and a persistence slot.
func NewManager(authAPI AuthAPI, slot Slot, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:    authAPI,
		slot:   slot,
		ttl:    defaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login authenticates against the remote and persists the resulting
// session. Last login wins: any previous record is overwritten.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrValidation) {
			return Session{}, err
		}
		var remote *api.RemoteError
		if errors.As(err, &remote) && (remote.Code == api.CodeTransport || remote.Code == api.CodeProtocol) {
			return Session{}, fmt.Errorf("%w: %s", ErrAuthUnreachable, remote.Details)
		}
		return Session{}, fmt.Errorf("%w: %s", ErrCredentialsRejected, err)
	}

	now := m.now().UTC()
	sess := Session{
		Token:     res.SessionID,
		Username:  res.Username,
		CreatedAt: now,
		ExpiresAt: tokenExpiry(res.SessionID, now.Add(m.ttl)),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.slot.Save(sess); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	m.logger.Info("session created", "username", sess.Username, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Current returns the persisted session if it is still valid. An expired
// record is cleared as a side effect and reported as absent.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

func (m *Manager) currentLocked() (Session, bool) {
	sess, ok, err := m.slot.Load()
	if err != nil {
		m.logger.Warn("load session failed", "err", err)
		return Session{}, false
	}
	if !ok {
		return Session{}, false
	}
	if !sess.ValidAt(m.now()) {
		m.logger.Info("session expired, clearing", "username", sess.Username)
		if err := m.slot.Clear(); err != nil {
			m.logger.Warn("clear expired session failed", "err", err)
		}
		return Session{}, false
	}
	return sess, true
}

// Token implements api.TokenSource.
func (m *Manager) Token() (string, bool) {
	sess, ok := m.Current()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// Authenticated reports whether a valid session exists. It never performs
// navigation; callers decide how to route an unauthenticated user.
func (m *Manager) Authenticated() bool {
	_, ok := m.Current()
	return ok
}

// Refresh extends a valid session by the configured lifetime. Expiry only
// ever moves forward; with no valid session this is a no-op.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.currentLocked()
	if !ok {
		return nil
	}
	next := m.now().UTC().Add(m.ttl)
	if !next.After(sess.ExpiresAt) {
		return nil
	}
	sess.ExpiresAt = next
	if err := m.slot.Save(sess); err != nil {
		return fmt.Errorf("persist refreshed session: %w", err)
	}
	m.logger.Debug("session refreshed", "expires_at", sess.ExpiresAt)
	return nil
}

// Logout notifies the remote best-effort, then clears local state
// unconditionally. A remote failure is logged, never surfaced.
func (m *Manager) Logout(ctx context.Context) error {
	sess, ok := m.Current()
	if ok {
		if err := m.api.Logout(ctx, sess.Token); err != nil {
			m.logger.Warn("remote logout failed", "err", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slot.Clear()
}

// Validate checks the session against the remote. A session the remote no
// longer accepts is destroyed locally; an unreachable remote leaves local
// state untouched and reports not-validated.
func (m *Manager) Validate(ctx context.Context) bool {
	sess, ok := m.Current()
	if !ok {
		return false
	}
	valid, err := m.api.ValidateSession(ctx, sess.Token)
	if err != nil {
		m.logger.Warn("session validation unreachable", "err", err)
		return false
	}
	if !valid {
		m.logger.Info("session rejected by remote, clearing")
		m.mu.Lock()
		defer m.mu.Unlock()
		if err := m.slot.Clear(); err != nil {
			m.logger.Warn("clear rejected session failed", "err", err)
		}
		return false
	}
	return true
}

// tokenExpiry prefers the exp claim when the credential happens to be a
// JWT; the parse is unverified, the claim only bounds the local window.
func tokenExpiry(token string, fallback time.Time) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time.UTC()
	}
	return fallback
}
