package mysql

import (
	"context"
	"errors"

	bankDomain "loanease/internal/domain/banking"

	"gorm.io/gorm"
)

type BankingRepository struct{ db *gorm.DB }

func NewBankingRepository(db *gorm.DB) *BankingRepository { return &BankingRepository{db: db} }

func (r *BankingRepository) Create(ctx context.Context, i *bankDomain.Info) error {
	err := r.db.WithContext(ctx).Create(i).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return bankDomain.ErrAlreadyAccepted
	}
	return err
}

func (r *BankingRepository) GetByApplicationID(ctx context.Context, applicationID uint64) (*bankDomain.Info, error) {
	var out bankDomain.Info
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bankDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
