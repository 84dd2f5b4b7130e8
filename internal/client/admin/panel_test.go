package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"loanease/internal/client/apiclient"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu      sync.Mutex
	apps    []apiclient.Application
	listErr error

	UpdateFn   func(id string, in apiclient.UpdateStatusRequest) error
	MarkReadFn func(id string) error

	updates []apiclient.UpdateStatusRequest
	lists   int
	logins  []string
	logouts int
}

func (f *fakeAPI) Login(_ context.Context, password string) (*apiclient.Session, error) {
	f.logins = append(f.logins, password)
	if password != "admin123" {
		return nil, &apiclient.APIError{Status: 401, Message: "Invalid password"}
	}
	return &apiclient.Session{Token: "jwt", TokenType: "Bearer", ExpiresAt: t0.Add(time.Hour)}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return nil
}

func (f *fakeAPI) ListApplications(context.Context) ([]apiclient.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]apiclient.Application(nil), f.apps...), nil
}

func (f *fakeAPI) Notifications(context.Context, string) ([]apiclient.Notification, error) {
	return []apiclient.Notification{{ID: "n1", Subject: "New Loan Application"}}, nil
}

func (f *fakeAPI) Stats(context.Context) (*apiclient.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &apiclient.Stats{TotalApplications: int64(len(f.apps))}, nil
}

func (f *fakeAPI) UnreadCount(context.Context, string) (int64, error) { return 3, nil }

func (f *fakeAPI) UpdateStatus(_ context.Context, id string, in apiclient.UpdateStatusRequest) (*apiclient.Application, error) {
	f.updates = append(f.updates, in)
	if f.UpdateFn != nil {
		if err := f.UpdateFn(id, in); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apps {
		if f.apps[i].ID == id {
			f.apps[i].Status = in.Status
			return &f.apps[i], nil
		}
	}
	return nil, &apiclient.APIError{Status: 404, Message: "application not found"}
}

func (f *fakeAPI) MarkRead(_ context.Context, id string) error {
	if f.MarkReadFn != nil {
		return f.MarkReadFn(id)
	}
	return nil
}

func (f *fakeAPI) BankingInfo(_ context.Context, id string) (*apiclient.BankingInfo, error) {
	return &apiclient.BankingInfo{AccountLastFour: "6789"}, nil
}

type recordedNotices struct {
	ok, bad []string
}

func (r *recordedNotices) Success(msg string) { r.ok = append(r.ok, msg) }

func (r *recordedNotices) Error(msg string) { r.bad = append(r.bad, msg) }

func app(id, first, last, email, status string, age time.Duration) apiclient.Application {
	return apiclient.Application{
		ID: id, FirstName: first, LastName: last, Email: email, Status: status,
		CreatedAt: t0.Add(-age),
	}
}

func newPanel(t *testing.T, api *fakeAPI, opts ...Option) (*Panel, *recordedNotices) {
	t.Helper()
	s := NewSession(api)
	require.NoError(t, s.Login(context.Background(), "admin123"))
	n := &recordedNotices{}
	opts = append([]Option{WithNotices(n), WithClock(func() time.Time { return t0 })}, opts...)
	return NewPanel(api, s, opts...), n
}

func TestSession_LoginLogoutExpiry(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api)
	assert.False(t, s.Valid(t0))

	err := s.Login(context.Background(), "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid password", LoginNotice(err))
	assert.False(t, s.Valid(t0))

	require.NoError(t, s.Login(context.Background(), "admin123"))
	assert.True(t, s.Valid(t0))
	assert.False(t, s.Valid(t0.Add(2*time.Hour)))
	assert.Equal(t, t0.Add(time.Hour), s.ExpiresAt())

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.Valid(t0))
	assert.Equal(t, 1, api.logouts)

	// logging out twice does not call the service again
	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, api.logouts)
}

func TestFilter(t *testing.T) {
	apps := []apiclient.Application{
		app("a-1", "John", "Doe", "john@example.com", apiclient.StatusApproved, 3*time.Hour),
		app("a-2", "Jane", "Smith", "jane.doe@example.com", apiclient.StatusApproved, 1*time.Hour),
		app("a-3", "Doe", "Ray", "ray@example.com", apiclient.StatusPending, 2*time.Hour),
		app("a-4", "Mary", "Major", "mary@example.com", apiclient.StatusApproved, 4*time.Hour),
		app("doe-5", "Sam", "Lee", "sam@example.com", apiclient.StatusApproved, 5*time.Hour),
	}

	got := Filter(apps, "DOE", apiclient.StatusApproved)
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	// newest first; a-3 is pending, a-4 has no match
	assert.Equal(t, []string{"a-2", "a-1", "doe-5"}, ids)

	assert.Len(t, Filter(apps, "", StatusAll), 5)
	assert.Len(t, Filter(apps, "", ""), 5)
	assert.Len(t, Filter(apps, "doe", StatusAll), 4)
	assert.Empty(t, Filter(apps, "zzz", StatusAll))
}

func TestPage(t *testing.T) {
	apps := make([]apiclient.Application, 23)
	for i := range apps {
		apps[i] = apiclient.Application{ID: fmt.Sprintf("a-%02d", i)}
	}

	p := Page(apps, 1)
	assert.Len(t, p.Items, PageSize)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 23, p.Total)

	p = Page(apps, 3)
	assert.Len(t, p.Items, 3)
	assert.Equal(t, "a-20", p.Items[0].ID)

	p = Page(apps, 9)
	assert.Equal(t, 3, p.Page)
	p = Page(apps, 0)
	assert.Equal(t, 1, p.Page)

	p = Page(nil, 1)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.TotalPages)
}

func TestRefresh_LoadsEverything(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{app("a-1", "John", "Doe", "j@x.com", apiclient.StatusPending, 0)}}
	p, _ := newPanel(t, api)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Len(t, p.Applications(), 1)
	assert.Len(t, p.Notifications(), 1)
	assert.EqualValues(t, 1, p.Stats().TotalApplications)
	assert.EqualValues(t, 3, p.UnreadCount())
}

func TestRefresh_FailureKeepsPriorState(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{app("a-1", "John", "Doe", "j@x.com", apiclient.StatusPending, 0)}}
	p, notices := newPanel(t, api)
	require.NoError(t, p.Refresh(context.Background()))

	api.listErr = apiclient.ErrUnavailable
	require.Error(t, p.Refresh(context.Background()))
	assert.Len(t, p.Applications(), 1)
	assert.Equal(t, []string{"Failed to fetch data"}, notices.bad)
}

func TestRefresh_RequiresValidSession(t *testing.T) {
	api := &fakeAPI{}
	p := NewPanel(api, NewSession(api), WithNotices(&recordedNotices{}))
	assert.ErrorIs(t, p.Refresh(context.Background()), ErrSessionExpired)
	assert.Zero(t, api.lists)
}

func TestUpdateStatus_SuccessRefreshesAndClosesDetail(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{app("a-1", "John", "Doe", "j@x.com", apiclient.StatusPending, 0)}}
	p, notices := newPanel(t, api)
	require.NoError(t, p.Refresh(context.Background()))
	p.Open("a-1")
	_, open := p.Selected()
	require.True(t, open)

	require.NoError(t, p.UpdateStatus(context.Background(), "a-1", apiclient.StatusApproved, "ignored"))
	require.Len(t, api.updates, 1)
	assert.Empty(t, api.updates[0].Message)
	assert.Equal(t, apiclient.StatusApproved, p.Applications()[0].Status)
	_, open = p.Selected()
	assert.False(t, open)
	assert.Equal(t, []string{"Status updated to Approved"}, notices.ok)
}

func TestUpdateStatus_MessageOnlyForDocumentsRequired(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{app("a-1", "John", "Doe", "j@x.com", apiclient.StatusPending, 0)}}
	p, _ := newPanel(t, api)

	require.NoError(t, p.UpdateStatus(context.Background(), "a-1", apiclient.StatusDocumentsRequired, "  Need pay stubs "))
	assert.Equal(t, "Need pay stubs", api.updates[0].Message)
}

func TestUpdateStatus_FailureLeavesStateUnchanged(t *testing.T) {
	api := &fakeAPI{apps: []apiclient.Application{app("a-1", "John", "Doe", "j@x.com", apiclient.StatusApproved, 0)}}
	api.UpdateFn = func(string, apiclient.UpdateStatusRequest) error {
		return &apiclient.APIError{Status: 409, Message: "invalid status transition"}
	}
	p, notices := newPanel(t, api)
	require.NoError(t, p.Refresh(context.Background()))
	p.Open("a-1")
	listsBefore := api.lists

	err := p.UpdateStatus(context.Background(), "a-1", apiclient.StatusRejected, "")
	require.Error(t, err)
	assert.Equal(t, apiclient.StatusApproved, p.Applications()[0].Status)
	_, open := p.Selected()
	assert.True(t, open)
	assert.Equal(t, listsBefore, api.lists)
	assert.Equal(t, []string{"invalid status transition"}, notices.bad)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	api := &fakeAPI{}
	p, _ := newPanel(t, api)
	err := p.UpdateStatus(context.Background(), "a-1", "archived", "")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Empty(t, api.updates)
}

func TestApprovalLink(t *testing.T) {
	p, _ := newPanel(t, &fakeAPI{}, WithBaseURL("https://loans.example.com/"))
	link, err := p.ApprovalLink(apiclient.Application{ApprovalToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "https://loans.example.com/accept-loan/tok", link)

	_, err = p.ApprovalLink(apiclient.Application{})
	assert.ErrorIs(t, err, ErrNoApprovalToken)
}

func TestMarkRead_FailureOnlyLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	api := &fakeAPI{MarkReadFn: func(string) error { return errors.New("boom") }}
	p, notices := newPanel(t, api, WithLogger(zap.New(core)))

	p.MarkRead(context.Background(), "n1")
	assert.Equal(t, 1, logs.FilterMessage("mark notification read failed").Len())
	assert.Empty(t, notices.bad)
	assert.Zero(t, api.lists)

	api.MarkReadFn = nil
	p.MarkRead(context.Background(), "n1")
	assert.Equal(t, 1, api.lists)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Docs Required", Label(apiclient.StatusDocumentsRequired))
	assert.Equal(t, "weird", Label("weird"))
}
