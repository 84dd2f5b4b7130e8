package applicationmock

import (
	"context"

	domain "loanease/internal/domain/application"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn                 func(ctx context.Context, a *domain.Application) error
	SaveFn                   func(ctx context.Context, a *domain.Application) error
	GetByPublicIDFn          func(ctx context.Context, publicID string) (*domain.Application, error)
	GetByPublicIDForUpdateFn func(ctx context.Context, publicID string) (*domain.Application, error)
	GetByApprovalTokenFn     func(ctx context.Context, token string) (*domain.Application, error)
	GetByUploadTokenFn       func(ctx context.Context, token string) (*domain.Application, error)
	ListFn                   func(ctx context.Context) ([]domain.Application, error)
	ListByEmailFn            func(ctx context.Context, email string) ([]domain.Application, error)
	TotalsFn                 func(ctx context.Context) ([]domain.StatusTotal, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByPublicID(ctx context.Context, publicID string) (*domain.Application, error) {
	if m.GetByPublicIDFn != nil {
		return m.GetByPublicIDFn(ctx, publicID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByPublicIDForUpdate(ctx context.Context, publicID string) (*domain.Application, error) {
	if m.GetByPublicIDForUpdateFn != nil {
		return m.GetByPublicIDForUpdateFn(ctx, publicID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApprovalToken(ctx context.Context, token string) (*domain.Application, error) {
	if m.GetByApprovalTokenFn != nil {
		return m.GetByApprovalTokenFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByUploadToken(ctx context.Context, token string) (*domain.Application, error) {
	if m.GetByUploadTokenFn != nil {
		return m.GetByUploadTokenFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context) ([]domain.Application, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByEmail(ctx context.Context, email string) ([]domain.Application, error) {
	if m.ListByEmailFn != nil {
		return m.ListByEmailFn(ctx, email)
	}
	return nil, context.Canceled
}

func (m *Repo) Totals(ctx context.Context) ([]domain.StatusTotal, error) {
	if m.TotalsFn != nil {
		return m.TotalsFn(ctx)
	}
	return nil, context.Canceled
}
