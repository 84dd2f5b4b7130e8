package documentmock

import (
	"bytes"
	"context"
	"io"
	"sync"

	domain "loanease/internal/domain/document"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn            func(ctx context.Context, d *domain.Document) error
	GetByPublicIDFn     func(ctx context.Context, applicationID uint64, publicID string) (*domain.Document, error)
	ListByApplicationFn func(ctx context.Context, applicationID uint64) ([]domain.Document, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByPublicID(ctx context.Context, applicationID uint64, publicID string) (*domain.Document, error) {
	if m.GetByPublicIDFn != nil {
		return m.GetByPublicIDFn(ctx, applicationID, publicID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByApplication(ctx context.Context, applicationID uint64) ([]domain.Document, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

var _ domain.BlobStore = (*Blobs)(nil)

// Blobs is an in-memory BlobStore. PutErr, when set, fails every Put.
type Blobs struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
}

func NewBlobs() *Blobs { return &Blobs{Objects: map[string][]byte{}} }

func (b *Blobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if b.PutErr != nil {
		return b.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = data
	return nil
}

func (b *Blobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.Objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Objects, key)
	return nil
}
