package mysql

import (
	"context"
	"errors"

	docDomain "loanease/internal/domain/document"

	"gorm.io/gorm"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *docDomain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) GetByPublicID(ctx context.Context, applicationID uint64, publicID string) (*docDomain.Document, error) {
	var out docDomain.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND public_id = ?", applicationID, publicID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID uint64) ([]docDomain.Document, error) {
	var out []docDomain.Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
