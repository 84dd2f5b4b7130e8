package document

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrUnsupportedType = errors.New("only PDF, JPEG and PNG files are accepted")
	ErrTooLarge        = errors.New("file exceeds the 10 MB limit")
	ErrEmpty           = errors.New("file is empty")
)

// Table: application_documents. Bytes live in the blob store under StorageKey.
type Document struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PublicID      string    `gorm:"column:public_id;size:36;not null;uniqueIndex:ux_documents_public_id" json:"id"`
	ApplicationID uint64    `gorm:"column:application_id;not null;index:idx_documents_application" json:"-"`
	Filename      string    `gorm:"column:filename;size:255;not null" json:"filename"`
	ContentType   string    `gorm:"column:content_type;size:64;not null" json:"content_type"`
	Size          int64     `gorm:"column:size;not null" json:"size"`
	StorageKey    string    `gorm:"column:storage_key;size:255;not null" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"uploaded_at"`
}

func (Document) TableName() string { return "application_documents" }
