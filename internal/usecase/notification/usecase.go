package notification

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "loanease/internal/domain/notification"
)

type Usecase struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewUsecase(repo domain.Repository, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, log: log}
}

// ParseRecipient defaults an empty value to admin.
func ParseRecipient(s string) (domain.RecipientType, error) {
	rt := domain.RecipientType(strings.ToLower(strings.TrimSpace(s)))
	if rt == "" {
		return domain.RecipientAdmin, nil
	}
	if !rt.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, s)
	}
	return rt, nil
}

func (u *Usecase) List(ctx context.Context, rt domain.RecipientType) ([]domain.Notification, error) {
	return u.repo.ListByRecipientType(ctx, rt)
}

// ListForApplicant returns the applicant notifications sent to email, newest first.
func (u *Usecase) ListForApplicant(ctx context.Context, email string) ([]domain.Notification, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidRecipient)
	}
	return u.repo.ListForApplicant(ctx, email)
}

func (u *Usecase) MarkRead(ctx context.Context, publicID string) error {
	if err := u.repo.MarkRead(ctx, publicID); err != nil {
		return err
	}
	u.log.Debug("notification marked read", zap.String("notification_id", publicID))
	return nil
}

func (u *Usecase) UnreadCount(ctx context.Context, rt domain.RecipientType) (int64, error) {
	return u.repo.CountUnread(ctx, rt)
}
