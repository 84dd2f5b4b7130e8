package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	docDomain "loanease/internal/domain/document"
)

func openBlobDB(t *testing.T) *DBStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "blobs.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	st := NewDBStore(db)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func TestDBStore_PutGetDelete(t *testing.T) {
	st := openBlobDB(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4 test")

	if err := st.Put(ctx, "applications/a/id.pdf", "application/pdf", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := st.Get(ctx, "applications/a/id.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(got, data) {
		t.Fatalf("Get = %q, want %q", got, data)
	}

	if err := st.Delete(ctx, "applications/a/id.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, "applications/a/id.pdf"); !errors.Is(err, docDomain.ErrNotFound) {
		t.Fatalf("after delete: want ErrNotFound, got %v", err)
	}
}

func TestDBStore_SizeMismatch(t *testing.T) {
	st := openBlobDB(t)
	err := st.Put(context.Background(), "k", "image/png", strings.NewReader("abc"), 10)
	if err == nil {
		t.Fatal("short body should fail")
	}
}

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	objects     map[string][]byte
	bucketThere bool
	created     bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.bucketThere {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, &types.NotFound{}
}

func (f *fakeS3) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	f.bucketThere = true
	return &s3.CreateBucketOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	st := NewS3Store(fake, "docs", zap.NewNop())
	ctx := context.Background()

	if err := st.EnsureBucket(ctx); err != nil || !fake.created {
		t.Fatalf("EnsureBucket: err=%v created=%v", err, fake.created)
	}
	fake.created = false
	if err := st.EnsureBucket(ctx); err != nil || fake.created {
		t.Fatalf("EnsureBucket on existing bucket must not create: err=%v", err)
	}

	if err := st.Put(ctx, "k.png", "image/png", strings.NewReader("png"), 3); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := st.Get(ctx, "k.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "png" {
		t.Fatalf("Get = %q", b)
	}
	_ = st.Delete(ctx, "k.png")
	if _, err := st.Get(ctx, "k.png"); !errors.Is(err, docDomain.ErrNotFound) {
		t.Fatalf("missing key: want ErrNotFound, got %v", err)
	}
}
