// Package admin is the review panel: it lists, filters and pages
// applications and moves them through their statuses.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loanease/internal/client/apiclient"
)

const PageSize = 10

// StatusAll disables the status filter.
const StatusAll = "all"

var (
	ErrUnknownStatus   = errors.New("admin: unknown status")
	ErrNoApprovalToken = errors.New("admin: application has no approval link")
)

// API is the slice of the service the panel uses.
type API interface {
	ListApplications(ctx context.Context) ([]apiclient.Application, error)
	Notifications(ctx context.Context, recipientType string) ([]apiclient.Notification, error)
	Stats(ctx context.Context) (*apiclient.Stats, error)
	UnreadCount(ctx context.Context, recipientType string) (int64, error)
	UpdateStatus(ctx context.Context, id string, in apiclient.UpdateStatusRequest) (*apiclient.Application, error)
	MarkRead(ctx context.Context, id string) error
	BankingInfo(ctx context.Context, id string) (*apiclient.BankingInfo, error)
}

// Notices shows transient messages to the admin.
type Notices interface {
	Success(msg string)
	Error(msg string)
}

type logNotices struct{ log *zap.Logger }

func (n logNotices) Success(msg string) { n.log.Info(msg) }

func (n logNotices) Error(msg string) { n.log.Warn(msg) }

var labels = map[string]string{
	apiclient.StatusPending:           "Pending",
	apiclient.StatusUnderReview:       "Under Review",
	apiclient.StatusDocumentsRequired: "Docs Required",
	apiclient.StatusApproved:          "Approved",
	apiclient.StatusRejected:          "Rejected",
}

// Label is the display name of a status.
func Label(status string) string {
	if l, ok := labels[status]; ok {
		return l
	}
	return status
}

type Option func(*Panel)

func WithNotices(n Notices) Option { return func(p *Panel) { p.notices = n } }

func WithLogger(l *zap.Logger) Option { return func(p *Panel) { p.log = l } }

func WithClock(now func() time.Time) Option { return func(p *Panel) { p.now = now } }

// WithBaseURL sets the public site used in approval links.
func WithBaseURL(u string) Option { return func(p *Panel) { p.baseURL = strings.TrimRight(u, "/") } }

type Panel struct {
	api     API
	session *Session
	notices Notices
	log     *zap.Logger
	now     func() time.Time
	baseURL string

	mu       sync.RWMutex
	apps     []apiclient.Application
	notes    []apiclient.Notification
	stats    *apiclient.Stats
	unread   int64
	selected string
}

func NewPanel(api API, session *Session, opts ...Option) *Panel {
	p := &Panel{api: api, session: session, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	p.log = p.log.Named("admin")
	if p.notices == nil {
		p.notices = logNotices{log: p.log}
	}
	return p
}

func (p *Panel) authorized() error {
	if p.session == nil || !p.session.Valid(p.now()) {
		p.notices.Error("Your session has expired. Please log in again.")
		return ErrSessionExpired
	}
	return nil
}

// Refresh reloads applications, the admin feed, stats and the unread count.
// Nothing is replaced unless all four succeed.
func (p *Panel) Refresh(ctx context.Context) error {
	if err := p.authorized(); err != nil {
		return err
	}
	var (
		apps   []apiclient.Application
		notes  []apiclient.Notification
		stats  *apiclient.Stats
		unread int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		apps, err = p.api.ListApplications(gctx)
		return err
	})
	g.Go(func() (err error) {
		notes, err = p.api.Notifications(gctx, "admin")
		return err
	})
	g.Go(func() (err error) {
		stats, err = p.api.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		unread, err = p.api.UnreadCount(gctx, "admin")
		return err
	})
	if err := g.Wait(); err != nil {
		p.notices.Error("Failed to fetch data")
		return fmt.Errorf("refresh: %w", err)
	}

	p.mu.Lock()
	p.apps, p.notes, p.stats, p.unread = apps, notes, stats, unread
	p.mu.Unlock()
	return nil
}

func (p *Panel) Applications() []apiclient.Application {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.apps)
}

func (p *Panel) Notifications() []apiclient.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.notes)
}

func (p *Panel) Stats() *apiclient.Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

func (p *Panel) UnreadCount() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unread
}

// Filter applies the search box and status filter to the loaded list.
func (p *Panel) Filter(query, status string) []apiclient.Application {
	return Filter(p.Applications(), query, status)
}

// Filter keeps applications whose first name, last name, email or id
// contains query (case-insensitive) and whose status equals status, newest
// first.
func Filter(apps []apiclient.Application, query, status string) []apiclient.Application {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]apiclient.Application, 0, len(apps))
	for _, a := range apps {
		if status != "" && status != StatusAll && a.Status != status {
			continue
		}
		if q != "" && !matches(a, q) {
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b apiclient.Application) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func matches(a apiclient.Application, q string) bool {
	for _, s := range []string{a.FirstName, a.LastName, a.Email, a.ID} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

type PageResult struct {
	Items      []apiclient.Application
	Page       int
	TotalPages int
	Total      int
}

// Page returns the 1-based page n of apps. Out-of-range pages are clamped.
func Page(apps []apiclient.Application, n int) PageResult {
	total := len(apps)
	pages := (total + PageSize - 1) / PageSize
	if n > pages {
		n = pages
	}
	if n < 1 {
		n = 1
	}
	start := min((n-1)*PageSize, total)
	end := min(start+PageSize, total)
	return PageResult{Items: apps[start:end], Page: n, TotalPages: pages, Total: total}
}

// Open shows the detail view for id.
func (p *Panel) Open(id string) {
	p.mu.Lock()
	p.selected = id
	p.mu.Unlock()
}

// Selected returns the application in the detail view, if any.
func (p *Panel) Selected() (apiclient.Application, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.selected == "" {
		return apiclient.Application{}, false
	}
	for _, a := range p.apps {
		if a.ID == p.selected {
			return a, true
		}
	}
	return apiclient.Application{}, false
}

func (p *Panel) Close() { p.Open("") }

// UpdateStatus asks the service to move id to status. The message is only
// sent for documents_required. On success the list is reloaded and the
// detail view closed; on failure nothing changes.
func (p *Panel) UpdateStatus(ctx context.Context, id, status, message string) error {
	if _, ok := labels[status]; !ok {
		p.notices.Error("Failed to update status")
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if err := p.authorized(); err != nil {
		return err
	}
	in := apiclient.UpdateStatusRequest{Status: status}
	if status == apiclient.StatusDocumentsRequired {
		in.Message = strings.TrimSpace(message)
	}
	if _, err := p.api.UpdateStatus(ctx, id, in); err != nil {
		p.notices.Error(apiclient.Notice(err, "Failed to update status"))
		return fmt.Errorf("update status %s: %w", id, err)
	}
	p.notices.Success("Status updated to " + Label(status))
	p.Close()
	if err := p.Refresh(ctx); err != nil {
		p.log.Warn("refresh after status update failed", zap.String("application_id", id), zap.Error(err))
	}
	return nil
}

// ApprovalLink is the shareable loan acceptance URL for an approved app.
func (p *Panel) ApprovalLink(app apiclient.Application) (string, error) {
	if app.ApprovalToken == "" {
		return "", ErrNoApprovalToken
	}
	return p.baseURL + "/accept-loan/" + app.ApprovalToken, nil
}

// MarkRead marks a feed entry read. Failures are only logged.
func (p *Panel) MarkRead(ctx context.Context, id string) {
	if err := p.api.MarkRead(ctx, id); err != nil {
		p.log.Warn("mark notification read failed", zap.String("notification_id", id), zap.Error(err))
		return
	}
	if err := p.Refresh(ctx); err != nil {
		p.log.Warn("refresh after mark read failed", zap.Error(err))
	}
}

// BankingInfo fetches the masked banking details of an accepted loan.
func (p *Panel) BankingInfo(ctx context.Context, id string) (*apiclient.BankingInfo, error) {
	if err := p.authorized(); err != nil {
		return nil, err
	}
	info, err := p.api.BankingInfo(ctx, id)
	if err != nil {
		p.notices.Error(apiclient.Notice(err, "Failed to load banking info"))
		return nil, err
	}
	return info, nil
}
