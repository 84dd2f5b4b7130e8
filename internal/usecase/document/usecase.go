package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	appDomain "loanease/internal/domain/application"
	domain "loanease/internal/domain/document"
	"loanease/internal/domain/uow"
	"loanease/internal/infrastructure/metrics"
	"loanease/internal/usecase/notify"
	"loanease/pkg/id"
	"loanease/pkg/rules"
)

type UploadInput struct {
	ApplicationID string
	Token         string
	Filename      string
	ContentType   string
	Size          int64
	Body          io.Reader
}

type Usecase struct {
	apps    appDomain.Repository
	docs    domain.Repository
	blobs   domain.BlobStore
	uow     uow.UnitOfWork
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Usecase)

func WithMetrics(m *metrics.Metrics) Option { return func(u *Usecase) { u.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(u *Usecase) { u.log = l } }

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func NewUsecase(apps appDomain.Repository, docs domain.Repository, blobs domain.BlobStore, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{apps: apps, docs: docs, blobs: blobs, uow: tx, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) checkUpload(a *appDomain.Application) error {
	if a.Status != appDomain.StatusDocumentsRequired || a.DocumentUploadToken == nil {
		return appDomain.ErrInvalidToken
	}
	if !a.UploadTokenValid(u.now()) {
		return appDomain.ErrTokenExpired
	}
	return nil
}

// VerifyUploadToken resolves an upload link to its application.
func (u *Usecase) VerifyUploadToken(ctx context.Context, token string) (*appDomain.Application, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appDomain.ErrInvalidToken
	}
	a, err := u.apps.GetByUploadToken(ctx, token)
	if errors.Is(err, appDomain.ErrNotFound) {
		return nil, appDomain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := u.checkUpload(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (u *Usecase) authorize(a *appDomain.Application, token string) error {
	if a.DocumentUploadToken == nil || *a.DocumentUploadToken != token {
		return appDomain.ErrInvalidToken
	}
	return u.checkUpload(a)
}

// Upload stores one supporting document for an application that is waiting
// on documents. The status is left for the reviewer to change.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	switch {
	case in.Size <= 0:
		return nil, domain.ErrEmpty
	case in.Size > rules.MaxUploadBytes:
		return nil, domain.ErrTooLarge
	}
	ct := rules.UploadContentType(in.Filename, in.ContentType)
	if ct == "" {
		return nil, domain.ErrUnsupportedType
	}

	a, err := u.apps.GetByPublicID(ctx, in.ApplicationID)
	if errors.Is(err, appDomain.ErrNotFound) {
		return nil, appDomain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := u.authorize(a, in.Token); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		PublicID:      id.NewPublicID(),
		ApplicationID: a.ID,
		Filename:      filepath.Base(in.Filename),
		ContentType:   ct,
		Size:          in.Size,
	}
	doc.StorageKey = fmt.Sprintf("applications/%s/%s%s", a.PublicID, doc.PublicID, strings.ToLower(filepath.Ext(doc.Filename)))

	if err := u.blobs.Put(ctx, doc.StorageKey, ct, io.LimitReader(in.Body, rules.MaxUploadBytes), in.Size); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	err = u.uow.WithinApplicationTx(ctx, a.PublicID, func(r uow.Repos, locked *appDomain.Application) error {
		// the link may have been revoked while the bytes were uploading
		if err := u.authorize(locked, in.Token); err != nil {
			return err
		}
		if err := r.Documents.Create(ctx, doc); err != nil {
			return err
		}
		return r.Notifications.Create(ctx, notify.ToAdmin(locked, notify.DocumentUploaded(locked, doc.Filename)))
	})
	if err != nil {
		if derr := u.blobs.Delete(context.WithoutCancel(ctx), doc.StorageKey); derr != nil {
			u.log.Warn("orphaned document blob", zap.String("key", doc.StorageKey), zap.Error(derr))
		}
		return nil, err
	}

	u.log.Info("document uploaded",
		zap.String("application_id", a.PublicID),
		zap.String("document_id", doc.PublicID),
		zap.Int64("size", doc.Size))
	u.metrics.DocumentUploaded()
	return doc, nil
}

// Open returns the document metadata and a reader for its bytes. The caller
// closes the reader.
func (u *Usecase) Open(ctx context.Context, applicationID, documentID string) (*domain.Document, io.ReadCloser, error) {
	a, err := u.apps.GetByPublicID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := u.docs.GetByPublicID(ctx, a.ID, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := u.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

func (u *Usecase) List(ctx context.Context, applicationID string) ([]domain.Document, error) {
	a, err := u.apps.GetByPublicID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return u.docs.ListByApplication(ctx, a.ID)
}
