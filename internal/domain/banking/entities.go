package banking

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("banking info not found")
	ErrAlreadyAccepted = errors.New("loan already accepted")
)

// Table: banking_info. Only the trailing digits are kept; CVV is never stored.
type Info struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ApplicationID   uint64    `gorm:"column:application_id;not null;uniqueIndex:ux_banking_application" json:"-"`
	AccountLastFour string    `gorm:"column:account_last_four;size:4;not null" json:"account_last_four"`
	RoutingLastFour string    `gorm:"column:routing_last_four;size:4;not null" json:"routing_last_four"`
	CardLastFour    string    `gorm:"column:card_last_four;size:4;not null" json:"card_last_four"`
	CardExpiration  string    `gorm:"column:card_expiration;size:5;not null" json:"card_expiration"`
	AcceptedAt      time.Time `gorm:"column:accepted_at;not null" json:"accepted_at"`
}

func (Info) TableName() string { return "banking_info" }
