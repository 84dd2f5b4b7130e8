package banking

import "context"

type Repository interface {
	// unique per application; a second insert fails
	Create(ctx context.Context, i *Info) error
	GetByApplicationID(ctx context.Context, applicationID uint64) (*Info, error)
}
