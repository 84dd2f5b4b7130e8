package notificationmock

import (
	"context"

	domain "loanease/internal/domain/notification"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock. When CreateFn is nil, Create records the
// notification in Created.
type Repo struct {
	CreateFn              func(ctx context.Context, n *domain.Notification) error
	ListByRecipientTypeFn func(ctx context.Context, rt domain.RecipientType) ([]domain.Notification, error)
	ListForApplicantFn    func(ctx context.Context, email string) ([]domain.Notification, error)
	MarkReadFn            func(ctx context.Context, publicID string) error
	CountUnreadFn         func(ctx context.Context, rt domain.RecipientType) (int64, error)

	Created []*domain.Notification
}

func (m *Repo) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	m.Created = append(m.Created, n)
	return nil
}

func (m *Repo) ListByRecipientType(ctx context.Context, rt domain.RecipientType) ([]domain.Notification, error) {
	if m.ListByRecipientTypeFn != nil {
		return m.ListByRecipientTypeFn(ctx, rt)
	}
	return nil, context.Canceled
}

func (m *Repo) ListForApplicant(ctx context.Context, email string) ([]domain.Notification, error) {
	if m.ListForApplicantFn != nil {
		return m.ListForApplicantFn(ctx, email)
	}
	return nil, context.Canceled
}

func (m *Repo) MarkRead(ctx context.Context, publicID string) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, publicID)
	}
	return context.Canceled
}

func (m *Repo) CountUnread(ctx context.Context, rt domain.RecipientType) (int64, error) {
	if m.CountUnreadFn != nil {
		return m.CountUnreadFn(ctx, rt)
	}
	return 0, context.Canceled
}

// Subjects lists the subjects of recorded notifications for a recipient type.
func (m *Repo) Subjects(rt domain.RecipientType) []string {
	var out []string
	for _, n := range m.Created {
		if n.RecipientType == rt {
			out = append(out, n.Subject)
		}
	}
	return out
}
