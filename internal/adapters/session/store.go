// Package session holds server-side session state behind the tutorcenter_session cookie.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// TokenBytes is the amount of randomness in a session token. Encoded as hex
// the token is twice as long.
const TokenBytes = 32

// DefaultTTL is the idle lifetime of a session when none is configured.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Session represents an authenticated session.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	// Touch moves the expiry of an existing session forward.
	Touch(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	// DeleteByAccount drops every session of one account, e.g. after a role
	// change or password reset.
	DeleteByAccount(ctx context.Context, accountID string) error
}

// NewToken returns a fresh random session token.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// WellFormed reports whether token has the shape NewToken produces.
// Malformed tokens are rejected before any store lookup.
func WellFormed(token string) bool {
	if len(token) != TokenBytes*2 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Manager creates sessions with a fixed TTL on top of a Store.
type Manager struct {
	Store Store
	TTL   time.Duration
	Now   func() time.Time
}

// NewManager returns a Manager; ttl <= 0 selects DefaultTTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Store: store, TTL: ttl, Now: time.Now}
}

// Start creates a session for the given account and returns it.
// PRE: accountID and role are non-empty
// POST: Session is stored with ExpiresAt = now + TTL
func (m *Manager) Start(ctx context.Context, accountID, email, role string) (Session, error) {
	token, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	now := m.Now()
	s := Session{
		Token:     token,
		AccountID: accountID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.TTL),
	}
	if err := m.Store.Create(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Refresh slides the expiry of s forward by TTL and returns the updated session.
func (m *Manager) Refresh(ctx context.Context, s Session) (Session, error) {
	s.ExpiresAt = m.Now().Add(m.TTL)
	if err := m.Store.Touch(ctx, s.Token, s.ExpiresAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// End removes the session behind token. Unknown tokens are not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.Store.Delete(ctx, token)
}
