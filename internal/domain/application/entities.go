package application

import (
	"errors"
	"fmt"
	"time"

	"loanease/internal/domain/document"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidStatus     = errors.New("invalid application status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidToken      = errors.New("invalid or expired link")
	ErrTokenExpired      = errors.New("link has expired")
)

type Status string

const (
	StatusPending           Status = "pending"
	StatusUnderReview       Status = "under_review"
	StatusDocumentsRequired Status = "documents_required"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
)

// Statuses in lifecycle order.
var Statuses = []Status{
	StatusPending, StatusUnderReview, StatusDocumentsRequired, StatusApproved, StatusRejected,
}

// documents_required may be re-entered to refresh the request message.
var transitions = map[Status][]Status{
	StatusPending:           {StatusUnderReview, StatusDocumentsRequired, StatusApproved, StatusRejected},
	StatusUnderReview:       {StatusDocumentsRequired, StatusApproved, StatusRejected},
	StatusDocumentsRequired: {StatusDocumentsRequired, StatusUnderReview, StatusApproved, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

func (s Status) CanTransitionTo(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Label is the human form used in notification subjects.
func (s Status) Label() string {
	switch s {
	case StatusUnderReview:
		return "Under Review"
	case StatusDocumentsRequired:
		return "Documents Required"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return "Received"
	}
}

// Table: loan_applications
type Application struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PublicID string `gorm:"column:public_id;size:36;not null;uniqueIndex:ux_applications_public_id" json:"id"`

	FirstName   string `gorm:"column:first_name;size:50;not null" json:"first_name"`
	LastName    string `gorm:"column:last_name;size:50;not null" json:"last_name"`
	Email       string `gorm:"column:email;size:254;not null;index:idx_applications_email" json:"email"`
	Phone       string `gorm:"column:phone;size:15;not null" json:"phone"`
	DateOfBirth string `gorm:"column:date_of_birth;size:10;not null" json:"date_of_birth"`

	StreetAddress string `gorm:"column:street_address;size:200;not null" json:"street_address"`
	City          string `gorm:"column:city;size:100;not null" json:"city"`
	State         string `gorm:"column:state;size:2;not null" json:"state"`
	ZipCode       string `gorm:"column:zip_code;size:10;not null" json:"zip_code"`

	AnnualIncome        float64 `gorm:"column:annual_income;type:decimal(14,2);not null" json:"annual_income"`
	EmploymentStatus    string  `gorm:"column:employment_status;size:32;not null" json:"employment_status"`
	LoanAmountRequested float64 `gorm:"column:loan_amount_requested;type:decimal(14,2);not null" json:"loan_amount_requested"`
	SSNLastFour         string  `gorm:"column:ssn_last_four;size:4;not null" json:"ssn_last_four"`

	Status          Status    `gorm:"column:status;size:32;not null;default:'pending';index:idx_applications_status" json:"status"`
	StatusUpdatedAt time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`

	ApprovalToken          *string    `gorm:"column:approval_token;size:32;uniqueIndex:ux_applications_approval_token" json:"approval_token,omitempty"`
	ApprovalTokenExpiresAt *time.Time `gorm:"column:approval_token_expires_at" json:"approval_token_expires_at,omitempty"`
	BankingInfoSubmitted   bool       `gorm:"column:banking_info_submitted;not null;default:false" json:"banking_info_submitted"`

	DocumentRequestMessage *string    `gorm:"column:document_request_message;type:text" json:"document_request_message,omitempty"`
	DocumentUploadToken    *string    `gorm:"column:document_upload_token;size:32;uniqueIndex:ux_applications_upload_token" json:"document_upload_token,omitempty"`
	UploadTokenExpiresAt   *time.Time `gorm:"column:upload_token_expires_at" json:"upload_token_expires_at,omitempty"`

	Documents []document.Document `gorm:"foreignKey:ApplicationID;references:ID" json:"documents"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_applications_created" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "loan_applications" }

func (a *Application) FullName() string { return a.FirstName + " " + a.LastName }

// ApprovalTokenValid reports whether the approval token is usable at now.
func (a *Application) ApprovalTokenValid(now time.Time) bool {
	return a.ApprovalTokenExpiresAt == nil || now.Before(*a.ApprovalTokenExpiresAt)
}

func (a *Application) UploadTokenValid(now time.Time) bool {
	return a.UploadTokenExpiresAt == nil || now.Before(*a.UploadTokenExpiresAt)
}

// StatusTotal is one row of the per-status aggregate.
type StatusTotal struct {
	Status Status
	Count  int64
	Amount float64
}
