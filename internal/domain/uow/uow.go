package uow

import (
	"context"

	"loanease/internal/domain/application"
	"loanease/internal/domain/banking"
	"loanease/internal/domain/document"
	"loanease/internal/domain/notification"
)

type Repos struct {
	Applications  application.Repository
	Notifications notification.Repository
	Documents     document.Repository
	Banking       banking.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the application row first, then pass it in
	WithinApplicationTx(ctx context.Context, publicID string, fn func(r Repos, a *application.Application) error) error
}
