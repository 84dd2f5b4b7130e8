package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	Save(ctx context.Context, a *Application) error

	// Lookups by public id; documents are preloaded
	GetByPublicID(ctx context.Context, publicID string) (*Application, error)
	// Same as GetByPublicID but row-locked for the enclosing tx
	GetByPublicIDForUpdate(ctx context.Context, publicID string) (*Application, error)

	GetByApprovalToken(ctx context.Context, token string) (*Application, error)
	GetByUploadToken(ctx context.Context, token string) (*Application, error)

	// Newest first
	List(ctx context.Context) ([]Application, error)
	// Case-insensitive email match, newest first
	ListByEmail(ctx context.Context, email string) ([]Application, error)

	Totals(ctx context.Context) ([]StatusTotal, error)
}
