package bankingmock

import (
	"context"

	domain "loanease/internal/domain/banking"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn             func(ctx context.Context, i *domain.Info) error
	GetByApplicationIDFn func(ctx context.Context, applicationID uint64) (*domain.Info, error)
}

func (m *Repo) Create(ctx context.Context, i *domain.Info) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, i)
	}
	return nil
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID uint64) (*domain.Info, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	return nil, context.Canceled
}
