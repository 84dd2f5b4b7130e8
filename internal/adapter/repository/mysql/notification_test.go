package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	notifDomain "loanease/internal/domain/notification"
	"loanease/pkg/id"
)

func seedNotification(t *testing.T, repo *NotificationRepository, rt notifDomain.RecipientType, email string, at time.Time) *notifDomain.Notification {
	t.Helper()
	n := &notifDomain.Notification{
		PublicID:       id.NewPublicID(),
		ApplicationID:  id.NewPublicID(),
		Subject:        "Application Received",
		Message:        "hello",
		RecipientType:  rt,
		RecipientEmail: email,
		Status:         "pending",
		CreatedAt:      at,
	}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return n
}

func TestNotification_ListByRecipientType(t *testing.T) {
	repo := NewNotificationRepository(openTestDB(t))
	now := time.Now().UTC()
	older := seedNotification(t, repo, notifDomain.RecipientAdmin, "", now.Add(-time.Hour))
	newer := seedNotification(t, repo, notifDomain.RecipientAdmin, "", now)
	seedNotification(t, repo, notifDomain.RecipientApplicant, "x@example.com", now)

	got, err := repo.ListByRecipientType(context.Background(), notifDomain.RecipientAdmin)
	if err != nil {
		t.Fatalf("ListByRecipientType: %v", err)
	}
	if len(got) != 2 || got[0].PublicID != newer.PublicID || got[1].PublicID != older.PublicID {
		t.Fatalf("unexpected order or filter: %+v", got)
	}
}

func TestNotification_ListForApplicant(t *testing.T) {
	repo := NewNotificationRepository(openTestDB(t))
	now := time.Now().UTC()
	seedNotification(t, repo, notifDomain.RecipientApplicant, "Jane@Example.com", now)
	seedNotification(t, repo, notifDomain.RecipientApplicant, "other@example.com", now)
	// admin copies never leak to the applicant feed
	seedNotification(t, repo, notifDomain.RecipientAdmin, "jane@example.com", now)

	got, err := repo.ListForApplicant(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("ListForApplicant: %v", err)
	}
	if len(got) != 1 || got[0].RecipientEmail != "Jane@Example.com" {
		t.Fatalf("unexpected applicant feed: %+v", got)
	}
}

func TestNotification_MarkReadAndCountUnread(t *testing.T) {
	repo := NewNotificationRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()
	a := seedNotification(t, repo, notifDomain.RecipientAdmin, "", now)
	seedNotification(t, repo, notifDomain.RecipientAdmin, "", now)

	n, err := repo.CountUnread(ctx, notifDomain.RecipientAdmin)
	if err != nil || n != 2 {
		t.Fatalf("CountUnread = %d, %v; want 2", n, err)
	}
	if err := repo.MarkRead(ctx, a.PublicID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	// marking twice is not an error
	if err := repo.MarkRead(ctx, a.PublicID); err != nil {
		t.Fatalf("MarkRead again: %v", err)
	}
	n, _ = repo.CountUnread(ctx, notifDomain.RecipientAdmin)
	if n != 1 {
		t.Fatalf("CountUnread after read = %d, want 1", n)
	}
	if err := repo.MarkRead(ctx, id.NewPublicID()); !errors.Is(err, notifDomain.ErrNotFound) {
		t.Fatalf("unknown id: want ErrNotFound, got %v", err)
	}
}
