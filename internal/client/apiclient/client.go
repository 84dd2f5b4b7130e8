package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"

	defaultTimeout = 30 * time.Second
)

// ErrUnavailable wraps transport failures (connection refused, timeouts).
var ErrUnavailable = errors.New("service unavailable")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
	Details []FieldError
	// set on calls authorized by an approval or upload token
	tokenScoped bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
}

// IsTokenError reports an invalid or expired approval/upload link. Such
// links are dead for the session; the applicant needs a fresh one.
func (e *APIError) IsTokenError() bool {
	return e.tokenScoped && (e.Status == http.StatusNotFound || e.Status == http.StatusGone)
}

// FieldMessages flattens validation details into field -> message.
func (e *APIError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Details))
	for _, d := range e.Details {
		out[d.Field] = d.Message
	}
	return out
}

// AsAPIError unwraps err into an *APIError when it is one.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsTokenError reports whether err is a token error from any call.
func IsTokenError(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.IsTokenError()
}

// Notice turns err into a message fit for the user. Client errors carry the
// service's own wording; everything else gets fallback.
func Notice(err error, fallback string) string {
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	if ae, ok := AsAPIError(err); ok && ae.Status < http.StatusInternalServerError && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// Client talks to the loan service REST API.
type Client struct {
	base string
	http *http.Client
	now  func() time.Time

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
		now:  time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.base }

// SetToken sets the admin bearer token; empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// NewRequestID returns an id suitable for the idempotency headers.
func NewRequestID() string { return uuid.NewString() }

type call struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	requestID   string
	tokenScoped bool
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.base + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, cl.body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if t := c.bearer(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	if cl.requestID != "" {
		req.Header.Set(HeaderRequestID, cl.requestID)
		req.Header.Set(HeaderRequestAt, strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	return req, nil
}

// send performs the call; the caller closes the body of a 2xx response.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeError(resp, cl.tokenScoped)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", cl.method, cl.path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, cl call, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("api: encode body: %w", err)
	}
	cl.body = bytes.NewReader(b)
	cl.contentType = "application/json"
	return c.do(ctx, cl, out)
}

func decodeError(resp *http.Response, tokenScoped bool) error {
	ae := &APIError{Status: resp.StatusCode, tokenScoped: tokenScoped}
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil {
		ae.Message = body.Error
		ae.Details = body.Details
	}
	if ae.Message == "" {
		ae.Message = http.StatusText(resp.StatusCode)
	}
	return ae
}

func esc(s string) string { return url.PathEscape(s) }

// ---- applications ----

// CreateApplication submits the intake form. Reusing requestID on retry
// makes the submission idempotent server side.
func (c *Client) CreateApplication(ctx context.Context, in CreateApplicationRequest, requestID string) (*Application, error) {
	var out Application
	if requestID == "" {
		requestID = NewRequestID()
	}
	err := c.doJSON(ctx, call{method: http.MethodPost, path: "/api/applications", requestID: requestID}, in, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var out []Application
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/applications"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetApplication(ctx context.Context, id string) (*Application, error) {
	var out Application
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/applications/" + esc(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListApplicationsByEmail returns the applicant's own records.
func (c *Client) ListApplicationsByEmail(ctx context.Context, email string) ([]Application, error) {
	var out []Application
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/applicants/" + esc(email) + "/applications"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, in UpdateStatusRequest) (*Application, error) {
	var out Application
	err := c.doJSON(ctx, call{method: http.MethodPatch, path: "/api/applications/" + esc(id) + "/status"}, in, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/stats"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- loan acceptance ----

func (c *Client) VerifyApproval(ctx context.Context, token string) (*Offer, error) {
	var out Offer
	cl := call{method: http.MethodGet, path: "/api/applications/verify/" + esc(token), tokenScoped: true}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptLoan(ctx context.Context, in AcceptLoanRequest, requestID string) error {
	if requestID == "" {
		requestID = NewRequestID()
	}
	cl := call{method: http.MethodPost, path: "/api/applications/accept-loan", requestID: requestID, tokenScoped: true}
	return c.doJSON(ctx, cl, in, nil)
}

func (c *Client) BankingInfo(ctx context.Context, id string) (*BankingInfo, error) {
	var out BankingInfo
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/applications/" + esc(id) + "/banking-info"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- documents ----

func (c *Client) VerifyUploadToken(ctx context.Context, token string) (*UploadGrant, error) {
	var out UploadGrant
	cl := call{method: http.MethodGet, path: "/api/applications/document-upload/" + esc(token), tokenScoped: true}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument sends one file as a multipart request.
func (c *Client) UploadDocument(ctx context.Context, appID, token, filename, contentType string, r io.Reader) (*Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filename,
	}))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("api: multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("api: read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("api: multipart: %w", err)
	}

	var out Document
	cl := call{
		method:      http.MethodPost,
		path:        "/api/applications/" + esc(appID) + "/upload-document",
		query:       url.Values{"token": {token}},
		body:        &buf,
		contentType: mw.FormDataContentType(),
		tokenScoped: true,
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context, appID string) ([]Document, error) {
	var out []Document
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/applications/" + esc(appID) + "/documents"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadDocument copies the document bytes into w and returns its filename.
func (c *Client) DownloadDocument(ctx context.Context, appID, docID string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, call{method: http.MethodGet, path: "/api/applications/" + esc(appID) + "/documents/" + esc(docID)})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("api: download: %w", err)
	}
	filename := docID
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return filename, nil
}

// ---- notifications ----

// Notifications lists the feed for a recipient type (admin when empty).
func (c *Client) Notifications(ctx context.Context, recipientType string) ([]Notification, error) {
	var out []Notification
	cl := call{method: http.MethodGet, path: "/api/notifications"}
	if recipientType != "" {
		cl.query = url.Values{"recipient_type": {recipientType}}
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplicantNotifications(ctx context.Context, email string) ([]Notification, error) {
	var out []Notification
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/notifications/applicant/" + esc(email)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPatch, path: "/api/notifications/" + esc(id) + "/read"}, nil)
}

func (c *Client) UnreadCount(ctx context.Context, recipientType string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	cl := call{method: http.MethodGet, path: "/api/notifications/unread-count"}
	if recipientType != "" {
		cl.query = url.Values{"recipient_type": {recipientType}}
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ---- admin ----

// Login exchanges the admin password for a session and installs its token.
func (c *Client) Login(ctx context.Context, password string) (*Session, error) {
	var out Session
	err := c.doJSON(ctx, call{method: http.MethodPost, path: "/api/admin/login"}, map[string]string{"password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the current session and clears the token even on failure.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, call{method: http.MethodPost, path: "/api/admin/logout"}, nil)
}

// ---- calculator ----

func (c *Client) Quote(ctx context.Context, amount, ratePct float64, termMonths int) (*Quote, error) {
	var out Quote
	cl := call{
		method: http.MethodGet,
		path:   "/api/calculator",
		query: url.Values{
			"amount": {strconv.FormatFloat(amount, 'f', -1, 64)},
			"rate":   {strconv.FormatFloat(ratePct, 'f', -1, 64)},
			"term":   {strconv.Itoa(termMonths)},
		},
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
