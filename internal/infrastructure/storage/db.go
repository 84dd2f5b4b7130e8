package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	docDomain "loanease/internal/domain/document"
)

var _ docDomain.BlobStore = (*DBStore)(nil)

// Table: document_blobs
type blob struct {
	Key         string    `gorm:"column:storage_key;size:255;primaryKey"`
	ContentType string    `gorm:"column:content_type;size:64;not null"`
	Data        []byte    `gorm:"column:data;type:longblob;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (blob) TableName() string { return "document_blobs" }

// DBStore keeps document bytes in the service database; used when no bucket
// is configured.
type DBStore struct{ db *gorm.DB }

func NewDBStore(db *gorm.DB) *DBStore { return &DBStore{db: db} }

func (s *DBStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&blob{})
}

func (s *DBStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("blob size mismatch")
	}
	row := &blob{Key: key, ContentType: contentType, Data: data}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
}

func (s *DBStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var row blob
	err := s.db.WithContext(ctx).Where("storage_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(row.Data)), nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&blob{}).Error
}
