package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	"loanease/internal/client/apiclient"
)

var ErrSessionExpired = errors.New("admin: session expired, please log in again")

// Authenticator exchanges the admin password for a bearer session.
type Authenticator interface {
	Login(ctx context.Context, password string) (*apiclient.Session, error)
	Logout(ctx context.Context) error
}

// Session is the admin's authenticated state. It is passed explicitly to
// the panel and ends on Logout or at its expiry.
type Session struct {
	auth Authenticator

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewSession(auth Authenticator) *Session { return &Session{auth: auth} }

func (s *Session) Login(ctx context.Context, password string) error {
	out, err := s.auth.Login(ctx, password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token, s.expiresAt = out.Token, out.ExpiresAt
	s.mu.Unlock()
	return nil
}

// Logout revokes the session server side; local state is cleared even if
// the call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.token, s.expiresAt = "", time.Time{}
		s.mu.Unlock()
	}()
	if !s.hasToken() {
		return nil
	}
	return s.auth.Logout(ctx)
}

func (s *Session) hasToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Valid reports whether the session can still be used at now.
func (s *Session) Valid(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && now.Before(s.expiresAt)
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// LoginNotice is the user-facing text for a Login error.
func LoginNotice(err error) string {
	if ae, ok := apiclient.AsAPIError(err); ok && ae.Status == 401 {
		return "Invalid password"
	}
	return apiclient.Notice(err, "Login failed. Please try again.")
}
