package storage

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"loanease/internal/config"
	docDomain "loanease/internal/domain/document"
)

// New returns the blob store selected by BLOB_STORE.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) (docDomain.BlobStore, error) {
	if cfg.BlobStore == "s3" {
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st := NewS3Store(client, cfg.S3Bucket, log)
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Info("storage: using s3", zap.String("bucket", cfg.S3Bucket))
		return st, nil
	}
	st := NewDBStore(db)
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}
	log.Info("storage: using database blobs")
	return st, nil
}
