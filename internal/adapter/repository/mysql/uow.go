package mysql

import (
	"context"

	appDomain "loanease/internal/domain/application"
	bankDomain "loanease/internal/domain/banking"
	docDomain "loanease/internal/domain/document"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Applications:  &ApplicationRepository{db: tx},
		Notifications: &NotificationRepository{db: tx},
		Documents:     &DocumentRepository{db: tx},
		Banking:       &BankingRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinApplicationTx(ctx context.Context, publicID string, fn func(r uow.Repos, a *appDomain.Application) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the application row up-front to prevent races
		a, err := r.Applications.GetByPublicIDForUpdate(ctx, publicID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&appDomain.Application{},
		&docDomain.Document{},
		&notifDomain.Notification{},
		&bankDomain.Info{},
	}
}

// Migrate creates or updates the service tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}
