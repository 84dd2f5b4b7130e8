package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"loanease/internal/client/apiclient"
	"loanease/pkg/rules"
)

var (
	ErrUnsupportedType = errors.New("only PDF, JPEG and PNG files are accepted")
	ErrTooLarge        = errors.New("file exceeds the 10 MB limit")
	ErrEmptyQueue      = errors.New("no files queued")
)

// File is a document picked for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// LocalFile describes a file on disk; the content type is taken from the
// extension.
func LocalFile(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: rules.UploadContentType(path, ""),
		Size:        st.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// Rejection is a file refused before upload.
type Rejection struct {
	File   File
	Reason error
}

// UploadError reports the file that stopped a batch. Files before it are
// already stored server side.
type UploadError struct {
	File     string
	Uploaded int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s (after %d uploaded): %v", e.File, e.Uploaded, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Queue holds the files waiting to be uploaded for one application.
type Queue struct {
	t      *Tracker
	target UploadAffordance
	files  []File
}

func (t *Tracker) NewQueue(target UploadAffordance) *Queue {
	return &Queue{t: t, target: target}
}

// Add queues the acceptable files and returns the rest with a reason.
func (q *Queue) Add(files ...File) []Rejection {
	var rejected []Rejection
	for _, f := range files {
		ct := rules.UploadContentType(f.Name, f.ContentType)
		switch {
		case ct == "":
			rejected = append(rejected, Rejection{File: f, Reason: ErrUnsupportedType})
		case f.Size > rules.MaxUploadBytes:
			rejected = append(rejected, Rejection{File: f, Reason: ErrTooLarge})
		default:
			f.ContentType = ct
			q.files = append(q.files, f)
		}
	}
	return rejected
}

// Pending returns the queued files in upload order.
func (q *Queue) Pending() []File { return append([]File(nil), q.files...) }

func (q *Queue) Remove(name string) {
	for i, f := range q.files {
		if f.Name == name {
			q.files = append(q.files[:i], q.files[i+1:]...)
			return
		}
	}
}

// UploadAll sends the queued files one request at a time. The first failure
// stops the batch; uploaded files leave the queue so a retry resumes with
// the remainder. A complete batch re-runs the last search; when that refresh
// fails it is logged and the Result is nil.
func (q *Queue) UploadAll(ctx context.Context) (*Result, error) {
	if len(q.files) == 0 {
		return nil, ErrEmptyQueue
	}
	uploaded := 0
	for len(q.files) > 0 {
		f := q.files[0]
		if err := q.upload(ctx, f); err != nil {
			return nil, &UploadError{File: f.Name, Uploaded: uploaded, Err: err}
		}
		q.files = q.files[1:]
		uploaded++
	}

	res, err := q.t.Refresh(ctx)
	if err != nil {
		q.t.log.Warn("refresh after upload failed", zap.String("application_id", q.target.ApplicationID), zap.Error(err))
		return nil, nil
	}
	return res, nil
}

func (q *Queue) upload(ctx context.Context, f File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = q.t.api.UploadDocument(ctx, q.target.ApplicationID, q.target.Token, f.Name, f.ContentType, rc)
	return err
}

// UploadNotice is the user-facing text for an UploadAll error.
func UploadNotice(err error) string {
	var ue *UploadError
	if errors.As(err, &ue) {
		if apiclient.IsTokenError(ue.Err) {
			return "This upload link is no longer valid. Please contact us for a new one."
		}
		return fmt.Sprintf("Failed to upload %s", ue.File)
	}
	if errors.Is(err, ErrEmptyQueue) {
		return "Please select at least one file"
	}
	return "Upload failed"
}
