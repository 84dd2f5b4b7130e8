package document

import (
	"context"
	"io"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByPublicID(ctx context.Context, applicationID uint64, publicID string) (*Document, error)
	ListByApplication(ctx context.Context, applicationID uint64) ([]Document, error)
}

// BlobStore keeps document bytes outside the metadata table.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
