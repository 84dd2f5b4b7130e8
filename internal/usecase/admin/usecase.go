package admin

import (
	"context"

	"go.uber.org/zap"

	"loanease/internal/infrastructure/auth"
)

// Sessions issues and revokes admin session tokens.
type Sessions interface {
	Issue() (*auth.Session, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type Usecase struct {
	hash     []byte
	sessions Sessions
	log      *zap.Logger
}

func NewUsecase(passwordHash []byte, sessions Sessions, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{hash: passwordHash, sessions: sessions, log: log}
}

// Login checks the shared admin password and opens a session.
func (u *Usecase) Login(ctx context.Context, password string) (*auth.Session, error) {
	if err := auth.CheckPassword(u.hash, password); err != nil {
		u.log.Warn("admin login failed")
		return nil, err
	}
	s, err := u.sessions.Issue()
	if err != nil {
		return nil, err
	}
	u.log.Info("admin logged in", zap.Time("expires_at", s.ExpiresAt))
	return s, nil
}

func (u *Usecase) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := u.sessions.Revoke(ctx, claims); err != nil {
		return err
	}
	u.log.Info("admin logged out")
	return nil
}
