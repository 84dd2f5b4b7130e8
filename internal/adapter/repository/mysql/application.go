package mysql

import (
	"context"
	"errors"

	appDomain "loanease/internal/domain/application"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *appDomain.Application) error {
	return r.db.WithContext(ctx).Omit("Documents").Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *appDomain.Application) error {
	return r.db.WithContext(ctx).Omit("Documents").Save(a).Error
}

func (r *ApplicationRepository) GetByPublicID(ctx context.Context, publicID string) (*appDomain.Application, error) {
	return r.first(r.withDocuments(ctx).Where("public_id = ?", publicID))
}

func (r *ApplicationRepository) GetByPublicIDForUpdate(ctx context.Context, publicID string) (*appDomain.Application, error) {
	q := r.withDocuments(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_id = ?", publicID)
	return r.first(q)
}

func (r *ApplicationRepository) GetByApprovalToken(ctx context.Context, token string) (*appDomain.Application, error) {
	return r.first(r.withDocuments(ctx).Where("approval_token = ?", token))
}

func (r *ApplicationRepository) GetByUploadToken(ctx context.Context, token string) (*appDomain.Application, error) {
	return r.first(r.withDocuments(ctx).Where("document_upload_token = ?", token))
}

func (r *ApplicationRepository) List(ctx context.Context) ([]appDomain.Application, error) {
	var out []appDomain.Application
	err := r.withDocuments(ctx).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) ListByEmail(ctx context.Context, email string) ([]appDomain.Application, error) {
	var out []appDomain.Application
	err := r.withDocuments(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) Totals(ctx context.Context) ([]appDomain.StatusTotal, error) {
	var rows []struct {
		Status string
		Count  int64
		Amount float64
	}
	err := r.db.WithContext(ctx).
		Model(&appDomain.Application{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(loan_amount_requested), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]appDomain.StatusTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, appDomain.StatusTotal{Status: appDomain.Status(row.Status), Count: row.Count, Amount: row.Amount})
	}
	return out, nil
}

func (r *ApplicationRepository) withDocuments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// first maps gorm's not-found onto the domain error.
func (r *ApplicationRepository) first(q *gorm.DB) (*appDomain.Application, error) {
	var out appDomain.Application
	if err := q.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appDomain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}
