// Package tracker looks up an applicant's applications by email and works
// out what they can do next: upload requested documents or accept a loan.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loanease/internal/client/apiclient"
)

var ErrEmailRequired = errors.New("tracker: email is required")

// API is the slice of the service the tracker uses.
type API interface {
	ApplicantNotifications(ctx context.Context, email string) ([]apiclient.Notification, error)
	ListApplicationsByEmail(ctx context.Context, email string) ([]apiclient.Application, error)
	UploadDocument(ctx context.Context, appID, token, filename, contentType string, r io.Reader) (*apiclient.Document, error)
}

// Entry is a notification with the status shown next to it.
type Entry struct {
	apiclient.Notification
	DisplayStatus string
}

// UploadAffordance offers document upload for one application.
type UploadAffordance struct {
	ApplicationID string
	Token         string
	Message       string
}

// LoanOffer is an approved loan still waiting for banking details.
type LoanOffer struct {
	ApplicationID string
	Token         string
	Amount        float64
	Link          string
}

type Result struct {
	Email         string
	Notifications []Entry
	Applications  []apiclient.Application
	Uploads       []UploadAffordance
	LoanOffers    []LoanOffer
	// nothing on record for the email
	Empty bool
}

// FirstUpload returns the first upload affordance in list order.
func (r *Result) FirstUpload() (UploadAffordance, bool) {
	if r == nil || len(r.Uploads) == 0 {
		return UploadAffordance{}, false
	}
	return r.Uploads[0], true
}

func (r *Result) FirstOffer() (LoanOffer, bool) {
	if r == nil || len(r.LoanOffers) == 0 {
		return LoanOffer{}, false
	}
	return r.LoanOffers[0], true
}

// AcceptLoanPath is the client route of the loan acceptance flow.
func AcceptLoanPath(token string) string { return "/accept-loan/" + token }

// InferStatus guesses a status from a notification subject. First match wins.
func InferStatus(subject string) string {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "approved"):
		return apiclient.StatusApproved
	case strings.Contains(s, "rejected"), strings.Contains(s, "declined"):
		return apiclient.StatusRejected
	case strings.Contains(s, "documents required"), strings.Contains(s, "documents"):
		return apiclient.StatusDocumentsRequired
	case strings.Contains(s, "under review"):
		return apiclient.StatusUnderReview
	case strings.Contains(s, "received"):
		return apiclient.StatusPending
	default:
		return apiclient.StatusPending
	}
}

// DisplayStatus prefers the status recorded by the service and only falls
// back to the subject for records written without one.
func DisplayStatus(n apiclient.Notification) string {
	if n.Status != "" {
		return n.Status
	}
	return InferStatus(n.Subject)
}

type Tracker struct {
	api API
	log *zap.Logger

	mu        sync.Mutex
	lastEmail string
}

func New(api API, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{api: api, log: log.Named("tracker")}
}

// Search fetches notifications and applications for email concurrently and
// derives the follow-ups from the applications.
func (t *Tracker) Search(ctx context.Context, email string) (*Result, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	var (
		notes []apiclient.Notification
		apps  []apiclient.Application
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = t.api.ApplicantNotifications(gctx, email)
		return err
	})
	g.Go(func() error {
		var err error
		apps, err = t.api.ListApplicationsByEmail(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search %s: %w", email, err)
	}

	t.mu.Lock()
	t.lastEmail = email
	t.mu.Unlock()
	return reconcile(email, notes, apps), nil
}

func reconcile(email string, notes []apiclient.Notification, apps []apiclient.Application) *Result {
	r := &Result{Email: email}
	for _, n := range notes {
		r.Notifications = append(r.Notifications, Entry{Notification: n, DisplayStatus: DisplayStatus(n)})
	}
	for _, a := range apps {
		if !strings.EqualFold(strings.TrimSpace(a.Email), email) {
			continue
		}
		r.Applications = append(r.Applications, a)
		switch {
		case a.Status == apiclient.StatusDocumentsRequired && a.DocumentUploadToken != "":
			r.Uploads = append(r.Uploads, UploadAffordance{
				ApplicationID: a.ID,
				Token:         a.DocumentUploadToken,
				Message:       a.DocumentRequestMessage,
			})
		case a.Status == apiclient.StatusApproved && a.ApprovalToken != "" && !a.BankingInfoSubmitted:
			r.LoanOffers = append(r.LoanOffers, LoanOffer{
				ApplicationID: a.ID,
				Token:         a.ApprovalToken,
				Amount:        a.LoanAmountRequested,
				Link:          AcceptLoanPath(a.ApprovalToken),
			})
		}
	}
	r.Empty = len(r.Notifications) == 0 && len(r.Applications) == 0
	return r
}

// Refresh repeats the last successful search.
func (t *Tracker) Refresh(ctx context.Context) (*Result, error) {
	t.mu.Lock()
	email := t.lastEmail
	t.mu.Unlock()
	return t.Search(ctx, email)
}

// Notice is the user-facing text for a Search error.
func Notice(err error) string {
	if errors.Is(err, ErrEmailRequired) {
		return "Please enter your email address"
	}
	return apiclient.Notice(err, "Failed to fetch application status")
}
