package tracker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"loanease/internal/client/apiclient"
)

type upload struct {
	appID, token, name, contentType, body string
}

type fakeAPI struct {
	notes []apiclient.Notification
	apps  []apiclient.Application

	NotesFn  func(email string) error
	AppsFn   func(email string) error
	UploadFn func(name string) error

	mu       sync.Mutex
	uploads  []upload
	searches int
}

func (f *fakeAPI) ApplicantNotifications(_ context.Context, email string) ([]apiclient.Notification, error) {
	if f.NotesFn != nil {
		if err := f.NotesFn(email); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	return f.notes, nil
}

func (f *fakeAPI) ListApplicationsByEmail(_ context.Context, email string) ([]apiclient.Application, error) {
	if f.AppsFn != nil {
		if err := f.AppsFn(email); err != nil {
			return nil, err
		}
	}
	return f.apps, nil
}

func (f *fakeAPI) UploadDocument(_ context.Context, appID, token, filename, contentType string, r io.Reader) (*apiclient.Document, error) {
	if f.UploadFn != nil {
		if err := f.UploadFn(filename); err != nil {
			return nil, err
		}
	}
	b, _ := io.ReadAll(r)
	f.mu.Lock()
	f.uploads = append(f.uploads, upload{appID, token, filename, contentType, string(b)})
	f.mu.Unlock()
	return &apiclient.Document{ID: "doc-" + filename, Filename: filename}, nil
}

func memFile(name string, size int64) File {
	return File{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("data:" + name)), nil },
	}
}

func TestInferStatus(t *testing.T) {
	subjects := []string{"Application Received", "Under Review", "Documents Required: ID proof", "Approved!"}
	want := []string{
		apiclient.StatusPending, apiclient.StatusUnderReview,
		apiclient.StatusDocumentsRequired, apiclient.StatusApproved,
	}
	for i, s := range subjects {
		assert.Equal(t, want[i], InferStatus(s), s)
	}

	assert.Equal(t, apiclient.StatusRejected, InferStatus("Application Declined"))
	assert.Equal(t, apiclient.StatusRejected, InferStatus("REJECTED"))
	assert.Equal(t, apiclient.StatusDocumentsRequired, InferStatus("Please send documents"))
	assert.Equal(t, apiclient.StatusPending, InferStatus("Hello"))
	// priority: approved beats documents
	assert.Equal(t, apiclient.StatusApproved, InferStatus("Documents approved"))
	assert.Equal(t, apiclient.StatusUnderReview, InferStatus("Received and under review"))
	assert.Equal(t, apiclient.StatusDocumentsRequired, InferStatus("Documents received"))
	assert.Equal(t, apiclient.StatusPending, InferStatus("We RECEIVED your application"))
}

func TestDisplayStatus_PrefersRecordedStatus(t *testing.T) {
	n := apiclient.Notification{Subject: "Application Received", Status: apiclient.StatusRejected}
	assert.Equal(t, apiclient.StatusRejected, DisplayStatus(n))
	n.Status = ""
	assert.Equal(t, apiclient.StatusPending, DisplayStatus(n))
}

func TestSearch_EmptyEmail(t *testing.T) {
	api := &fakeAPI{}
	_, err := New(api, nil).Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.Equal(t, "Please enter your email address", Notice(err))
	assert.Zero(t, api.searches)
}

func TestSearch_UploadAffordance(t *testing.T) {
	api := &fakeAPI{
		apps: []apiclient.Application{
			{ID: "a1", Email: "Jane@Example.com", Status: apiclient.StatusDocumentsRequired, DocumentUploadToken: "t1", DocumentRequestMessage: "ID proof"},
			{ID: "a2", Email: "someone@else.com", Status: apiclient.StatusDocumentsRequired, DocumentUploadToken: "t2"},
		},
	}
	res, err := New(api, nil).Search(context.Background(), "jane@example.com")
	require.NoError(t, err)

	require.Len(t, res.Applications, 1)
	require.Len(t, res.Uploads, 1)
	assert.Equal(t, UploadAffordance{ApplicationID: "a1", Token: "t1", Message: "ID proof"}, res.Uploads[0])
	assert.Empty(t, res.LoanOffers)
	assert.False(t, res.Empty)
}

func TestSearch_LoanOffer(t *testing.T) {
	app := apiclient.Application{
		ID: "a1", Email: "jane@example.com", Status: apiclient.StatusApproved,
		ApprovalToken: "tok", LoanAmountRequested: 15000,
	}
	api := &fakeAPI{apps: []apiclient.Application{app}}
	tr := New(api, nil)

	res, err := tr.Search(context.Background(), "jane@example.com")
	require.NoError(t, err)
	offer, ok := res.FirstOffer()
	require.True(t, ok)
	assert.Equal(t, "/accept-loan/tok", offer.Link)
	assert.Equal(t, 15000.0, offer.Amount)

	app.BankingInfoSubmitted = true
	api.apps = []apiclient.Application{app}
	res, err = tr.Search(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, res.LoanOffers)
	_, ok = res.FirstOffer()
	assert.False(t, ok)
}

func TestSearch_SurfacesEveryMatchInOrder(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{
		{ID: "a1", Email: "jane@example.com", Status: apiclient.StatusDocumentsRequired, DocumentUploadToken: "t1"},
		{ID: "a2", Email: "jane@example.com", Status: apiclient.StatusDocumentsRequired, DocumentUploadToken: "t2"},
	}}
	res, err := New(api, nil).Search(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, res.Uploads, 2)
	first, _ := res.FirstUpload()
	assert.Equal(t, "t1", first.Token)
}

func TestSearch_NothingFound(t *testing.T) {
	res, err := New(&fakeAPI{}, nil).Search(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.True(t, res.Empty)
}

func TestSearch_NotificationsCarryDisplayStatus(t *testing.T) {
	api := &fakeAPI{notes: []apiclient.Notification{
		{ID: "n1", Subject: "Application Received"},
		{ID: "n2", Subject: "Loan Update", Status: apiclient.StatusUnderReview},
	}}
	res, err := New(api, nil).Search(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, res.Notifications, 2)
	assert.Equal(t, apiclient.StatusPending, res.Notifications[0].DisplayStatus)
	assert.Equal(t, apiclient.StatusUnderReview, res.Notifications[1].DisplayStatus)
}

func TestSearch_FailureIsReported(t *testing.T) {
	api := &fakeAPI{AppsFn: func(string) error { return apiclient.ErrUnavailable }}
	_, err := New(api, nil).Search(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch application status", Notice(err))
}

func TestQueue_AddRejectsBeforeUpload(t *testing.T) {
	tr := New(&fakeAPI{}, nil)
	q := tr.NewQueue(UploadAffordance{ApplicationID: "a1", Token: "t1"})

	rejected := q.Add(
		memFile("id.pdf", 1024),
		memFile("paystub.JPG", 2048),
		memFile("bank.png", 4096),
		memFile("huge.pdf", 10<<20+1),
	)
	require.Len(t, rejected, 1)
	assert.Equal(t, "huge.pdf", rejected[0].File.Name)
	assert.ErrorIs(t, rejected[0].Reason, ErrTooLarge)
	require.Len(t, q.Pending(), 3)
	assert.Equal(t, "image/jpeg", q.Pending()[1].ContentType)

	rejected = q.Add(memFile("notes.txt", 10), File{Name: "scan.pdf", ContentType: "image/png", Size: 10})
	require.Len(t, rejected, 2)
	assert.ErrorIs(t, rejected[0].Reason, ErrUnsupportedType)
	assert.ErrorIs(t, rejected[1].Reason, ErrUnsupportedType)
	assert.Len(t, q.Pending(), 3)

	q.Remove("bank.png")
	assert.Len(t, q.Pending(), 2)
}

func TestQueue_UploadAllRefreshesSearch(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{
		{ID: "a1", Email: "jane@example.com", Status: apiclient.StatusDocumentsRequired, DocumentUploadToken: "t1"},
	}}
	tr := New(api, nil)
	res, err := tr.Search(context.Background(), "jane@example.com")
	require.NoError(t, err)
	target, ok := res.FirstUpload()
	require.True(t, ok)

	q := tr.NewQueue(target)
	q.Add(memFile("a.pdf", 10), memFile("b.png", 10))
	res, err = q.UploadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, api.uploads, 2)
	assert.Equal(t, upload{"a1", "t1", "a.pdf", "application/pdf", "data:a.pdf"}, api.uploads[0])
	assert.Equal(t, "b.png", api.uploads[1].name)
	assert.Equal(t, 2, api.searches)
	assert.Empty(t, q.Pending())
}

func TestQueue_FirstFailureAbortsRest(t *testing.T) {
	api := &fakeAPI{UploadFn: func(name string) error {
		if name == "b.pdf" {
			return &apiclient.APIError{Status: 413, Message: "file exceeds the 10 MB limit"}
		}
		return nil
	}}
	tr := New(api, nil)
	q := tr.NewQueue(UploadAffordance{ApplicationID: "a1", Token: "t1"})
	q.Add(memFile("a.pdf", 10), memFile("b.pdf", 10), memFile("c.pdf", 10))

	_, err := q.UploadAll(context.Background())
	var ue *UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "b.pdf", ue.File)
	assert.Equal(t, 1, ue.Uploaded)
	assert.Equal(t, "Failed to upload b.pdf", UploadNotice(err))

	require.Len(t, api.uploads, 1)
	assert.Zero(t, api.searches)
	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "b.pdf", pending[0].Name)
}

func TestQueue_TokenErrorNotice(t *testing.T) {
	err := &UploadError{File: "a.pdf", Err: tokenErr(t)}
	assert.Equal(t, "This upload link is no longer valid. Please contact us for a new one.", UploadNotice(err))
	assert.Equal(t, "Please select at least one file", UploadNotice(ErrEmptyQueue))
}

// tokenErr produces a token-scoped APIError through a real client call.
func tokenErr(t *testing.T) error {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = io.WriteString(w, `{"error":"This link has expired"}`)
	}))
	defer srv.Close()
	_, err := apiclient.New(srv.URL).VerifyUploadToken(context.Background(), "t1")
	require.True(t, apiclient.IsTokenError(err))
	return err
}

func TestQueue_RefreshFailureIsLoggedOnly(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fail := false
	api := &fakeAPI{NotesFn: func(string) error {
		if fail {
			return errors.New("down")
		}
		return nil
	}}
	tr := New(api, zap.New(core))
	_, err := tr.Search(context.Background(), "jane@example.com")
	require.NoError(t, err)

	fail = true
	q := tr.NewQueue(UploadAffordance{ApplicationID: "a1", Token: "t1"})
	q.Add(memFile("a.pdf", 10))
	res, err := q.UploadAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, logs.FilterMessage("refresh after upload failed").Len())
}
