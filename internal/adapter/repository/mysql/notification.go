package mysql

import (
	"context"

	notifDomain "loanease/internal/domain/notification"

	"gorm.io/gorm"
)

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notifDomain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByRecipientType(ctx context.Context, rt notifDomain.RecipientType) ([]notifDomain.Notification, error) {
	var out []notifDomain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_type = ?", rt).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *NotificationRepository) ListForApplicant(ctx context.Context, email string) ([]notifDomain.Notification, error) {
	var out []notifDomain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_type = ? AND LOWER(recipient_email) = LOWER(?)", notifDomain.RecipientApplicant, email).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, publicID string) error {
	res := r.db.WithContext(ctx).
		Model(&notifDomain.Notification{}).
		Where("public_id = ?", publicID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	// already-read rows still count as matched on mysql only with CLIENT_FOUND_ROWS
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&notifDomain.Notification{}).Where("public_id = ?", publicID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notifDomain.ErrNotFound
		}
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, rt notifDomain.RecipientType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&notifDomain.Notification{}).
		Where("recipient_type = ? AND `read` = ?", rt, false).
		Count(&n).Error
	return n, err
}
