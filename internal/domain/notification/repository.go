package notification

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// Newest first
	ListByRecipientType(ctx context.Context, rt RecipientType) ([]Notification, error)
	// Applicant notifications for the email, case-insensitive, newest first
	ListForApplicant(ctx context.Context, email string) ([]Notification, error)
	// ErrNotFound when no row matches
	MarkRead(ctx context.Context, publicID string) error
	CountUnread(ctx context.Context, rt RecipientType) (int64, error)
}
