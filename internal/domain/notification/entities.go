package notification

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("notification not found")
	ErrInvalidRecipient = errors.New("invalid recipient")
)

type RecipientType string

const (
	RecipientAdmin     RecipientType = "admin"
	RecipientApplicant RecipientType = "applicant"
)

func (r RecipientType) Valid() bool { return r == RecipientAdmin || r == RecipientApplicant }

// Table: notifications
type Notification struct {
	ID            uint64        `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PublicID      string        `gorm:"column:public_id;size:36;not null;uniqueIndex:ux_notifications_public_id" json:"id"`
	ApplicationID string        `gorm:"column:application_id;size:36;not null;index:idx_notifications_application" json:"application_id"`
	Subject       string        `gorm:"column:subject;size:200;not null" json:"subject"`
	Message       string        `gorm:"column:message;type:text;not null" json:"message"`
	RecipientType RecipientType `gorm:"column:recipient_type;size:16;not null;index:idx_notifications_recipient" json:"recipient_type"`
	// empty for admin notifications
	RecipientEmail string `gorm:"column:recipient_email;size:254;index:idx_notifications_email" json:"recipient_email,omitempty"`
	// application status at the time of writing
	Status    string    `gorm:"column:status;size:32" json:"status,omitempty"`
	Read      bool      `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
