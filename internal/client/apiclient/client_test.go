package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithClock(func() time.Time { return time.UnixMilli(1736123456789) }))
}

func TestCreateApplication_SendsIdempotencyHeaders(t *testing.T) {
	var gotID, gotAt string
	var body CreateApplicationRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/applications", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotID = r.Header.Get(HeaderRequestID)
		gotAt = r.Header.Get(HeaderRequestAt)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"app-1","status":"pending","email":"jane@example.com"}`)
	})

	app, err := c.CreateApplication(context.Background(), CreateApplicationRequest{
		FirstName: "Jane", Phone: "5551234567", AnnualIncome: 50000,
	}, "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88")
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", gotID)
	assert.Equal(t, "1736123456789", gotAt)
	assert.Equal(t, "Jane", body.FirstName)
	assert.Equal(t, 50000.0, body.AnnualIncome)
}

func TestCreateApplication_GeneratesRequestID(t *testing.T) {
	var gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(HeaderRequestID)
		_, _ = io.WriteString(w, `{"id":"app-1"}`)
	})
	_, err := c.CreateApplication(context.Background(), CreateApplicationRequest{}, "")
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestAPIError_Decoding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"validation failed","details":[{"field":"email","message":"Invalid email format"}]}`)
	})
	_, err := c.CreateApplication(context.Background(), CreateApplicationRequest{}, "")
	require.Error(t, err)

	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, "validation failed", ae.Message)
	assert.Equal(t, map[string]string{"email": "Invalid email format"}, ae.FieldMessages())
	assert.False(t, ae.IsTokenError())
	assert.Contains(t, ae.Error(), "422")
}

func TestAPIError_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.Stats(context.Background())
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, "Bad Gateway", ae.Message)
}

func TestTokenErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(c *Client) error
		want   bool
	}{
		{
			name: "verify approval 404", status: http.StatusNotFound, want: true,
			call: func(c *Client) error { _, err := c.VerifyApproval(context.Background(), "tok"); return err },
		},
		{
			name: "verify approval 410", status: http.StatusGone, want: true,
			call: func(c *Client) error { _, err := c.VerifyApproval(context.Background(), "tok"); return err },
		},
		{
			name: "upload token 404", status: http.StatusNotFound, want: true,
			call: func(c *Client) error { _, err := c.VerifyUploadToken(context.Background(), "tok"); return err },
		},
		{
			name: "application 404 is not a token error", status: http.StatusNotFound, want: false,
			call: func(c *Client) error { _, err := c.GetApplication(context.Background(), "x"); return err },
		},
		{
			name: "accept 409 is not a token error", status: http.StatusConflict, want: false,
			call: func(c *Client) error { return c.AcceptLoan(context.Background(), AcceptLoanRequest{}, "") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			})
			err := tt.call(c)
			require.Error(t, err)
			assert.Equal(t, tt.want, IsTokenError(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL)
	_, err := c.ListApplications(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestLogin_InstallsBearer_LogoutClearsIt(t *testing.T) {
	var authHeaders []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/admin/login":
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "admin123", in["password"])
			_, _ = io.WriteString(w, `{"token":"jwt-1","token_type":"Bearer","expires_at":"2030-01-01T00:00:00Z"}`)
		case "/api/applications":
			_, _ = io.WriteString(w, `[]`)
		case "/api/admin/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	s, err := c.Login(ctx, "admin123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.Token)

	_, err = c.ListApplications(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx))
	_, err = c.ListApplications(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer jwt-1", "Bearer jwt-1", ""}, authHeaders)
}

func TestUploadDocument_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/applications/app-1/upload-document", r.URL.Path)
		assert.Equal(t, "t1", r.URL.Query().Get("token"))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "id.pdf", fh.Filename)
		assert.Equal(t, "application/pdf", fh.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(b))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"doc-1","filename":"id.pdf","size":8}`)
	})
	doc, err := c.UploadDocument(context.Background(), "app-1", "t1", "id.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.EqualValues(t, 8, doc.Size)
}

func TestDownloadDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="id.pdf"`)
		_, _ = io.WriteString(w, "bytes")
	})
	var sb strings.Builder
	name, err := c.DownloadDocument(context.Background(), "app-1", "doc-1", &sb)
	require.NoError(t, err)
	assert.Equal(t, "id.pdf", name)
	assert.Equal(t, "bytes", sb.String())
}

func TestQueryEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/calculator":
			assert.Equal(t, "10000", r.URL.Query().Get("amount"))
			assert.Equal(t, "6.5", r.URL.Query().Get("rate"))
			assert.Equal(t, "36", r.URL.Query().Get("term"))
			_, _ = io.WriteString(w, `{"monthly_payment":306.49,"loan_term_months":36}`)
		case "/api/notifications/unread-count":
			assert.Equal(t, "admin", r.URL.Query().Get("recipient_type"))
			_, _ = io.WriteString(w, `{"count":4}`)
		case "/api/notifications/applicant/jane@example.com":
			_, _ = io.WriteString(w, `[{"id":"n1","subject":"Application Received","status":"pending"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	q, err := c.Quote(ctx, 10000, 6.5, 36)
	require.NoError(t, err)
	assert.Equal(t, 306.49, q.MonthlyPayment)

	n, err := c.UnreadCount(ctx, "admin")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	list, err := c.ApplicantNotifications(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pending", list[0].Status)
}

func TestNotice(t *testing.T) {
	const fallback = "Failed to submit application. Please try again."
	assert.Equal(t, "Invalid password", Notice(&APIError{Status: 401, Message: "Invalid password"}, fallback))
	assert.Equal(t, fallback, Notice(&APIError{Status: 500, Message: "internal error"}, fallback))
	assert.Equal(t, fallback, Notice(ErrUnavailable, fallback))
	assert.Equal(t, "Request cancelled", Notice(context.Canceled, fallback))
}
