// Package auth is the authentication boundary the validation chain
// and POST handler depend on. Real credential-store internals are out
// of scope for the ingestion core (spec.md §1); this package defines
// the interface the core needs and a minimal bcrypt-backed
// implementation for standalone operation and tests.
package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownUser is returned by Authenticate when no account matches
// the given name.
var ErrUnknownUser = errors.New("auth: unknown user")

// ErrWrongPassword is returned by Authenticate when the password does
// not match the stored hash.
var ErrWrongPassword = errors.New("auth: wrong password")

// Auth is the authentication boundary consumed by the protocol handler:
// does this identity authenticate, and may it post.
type Auth interface {
	// Authenticate verifies username/password and reports whether the
	// identity may post articles.
	Authenticate(username, password string) (canPost bool, err error)
}

// user is an in-memory account record.
type user struct {
	passwordHash []byte
	canPost      bool
}

// Manager is a minimal in-memory Auth implementation, mirroring the
// donor's AuthManager/bcrypt verification pattern
// (internal/nntp/nntp-auth-manager.go +
// internal/database/db_nntp_users.go) without the backing database —
// credential persistence is an external collaborator per spec.md §1.
type Manager struct {
	mu    sync.RWMutex
	users map[string]user
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{users: make(map[string]user)}
}

// AddUser registers an account with a bcrypt-hashed password.
func (m *Manager) AddUser(username, password string, canPost bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = user{passwordHash: hash, canPost: canPost}
	return nil
}

// Authenticate implements Auth.
func (m *Manager) Authenticate(username, password string) (bool, error) {
	m.mu.RLock()
	u, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		return false, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return false, ErrWrongPassword
	}
	return u.canPost, nil
}
