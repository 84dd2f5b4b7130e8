package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "loanease/internal/domain/application"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/domain/uow"
	"loanease/internal/infrastructure/metrics"
	"loanease/internal/usecase/notify"
	"loanease/pkg/id"
	"loanease/pkg/rules"
)

var ErrInvalidInput = errors.New("invalid application input")

const statsKey = "stats"

// Cache is the slice of the JSON cache used for dashboard stats.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Usecase struct {
	repo    domain.Repository
	uow     uow.UnitOfWork
	cache   Cache
	emails  *notify.Emailer
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time

	approvalTTL time.Duration
	uploadTTL   time.Duration
	statsTTL    time.Duration
	baseURL     string
}

type Option func(*Usecase)

func WithCache(c Cache, ttl time.Duration) Option {
	return func(u *Usecase) { u.cache, u.statsTTL = c, ttl }
}

func WithEmailer(e *notify.Emailer) Option { return func(u *Usecase) { u.emails = e } }

func WithMetrics(m *metrics.Metrics) Option { return func(u *Usecase) { u.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(u *Usecase) { u.log = l } }

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// WithTokenTTLs sets how long approval and upload links stay valid.
func WithTokenTTLs(approval, upload time.Duration) Option {
	return func(u *Usecase) { u.approvalTTL, u.uploadTTL = approval, upload }
}

// WithBaseURL sets the public site used in emailed links.
func WithBaseURL(base string) Option { return func(u *Usecase) { u.baseURL = base } }

func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		repo:        repo,
		uow:         tx,
		log:         zap.NewNop(),
		now:         time.Now,
		approvalTTL: 30 * 24 * time.Hour,
		uploadTTL:   14 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// checkInput mirrors the intake form rules.
func checkInput(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.FirstName) == "", strings.TrimSpace(in.LastName) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !rules.ValidEmail(in.Email):
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	case !rules.ValidPhone(in.Phone):
		return fmt.Errorf("%w: invalid phone", ErrInvalidInput)
	case !rules.ValidDate(in.DateOfBirth):
		return fmt.Errorf("%w: invalid date of birth", ErrInvalidInput)
	case strings.TrimSpace(in.StreetAddress) == "", strings.TrimSpace(in.City) == "":
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	case !rules.ValidState(in.State), !rules.ValidZIP(in.ZipCode):
		return fmt.Errorf("%w: invalid state or zip", ErrInvalidInput)
	case in.AnnualIncome <= 0, in.LoanAmountRequested <= 0:
		return fmt.Errorf("%w: amounts must be greater than 0", ErrInvalidInput)
	case !rules.ValidEmployment(in.EmploymentStatus):
		return fmt.Errorf("%w: invalid employment status", ErrInvalidInput)
	case !rules.ValidSSNLastFour(in.SSNLastFour):
		return fmt.Errorf("%w: invalid ssn last four", ErrInvalidInput)
	}
	return nil
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Application, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	now := u.now().UTC()
	a := &domain.Application{
		PublicID:            id.NewPublicID(),
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		Email:               strings.TrimSpace(in.Email),
		Phone:               rules.PhoneDigits(in.Phone),
		DateOfBirth:         in.DateOfBirth,
		StreetAddress:       strings.TrimSpace(in.StreetAddress),
		City:                strings.TrimSpace(in.City),
		State:               in.State,
		ZipCode:             in.ZipCode,
		AnnualIncome:        in.AnnualIncome,
		EmploymentStatus:    in.EmploymentStatus,
		LoanAmountRequested: in.LoanAmountRequested,
		SSNLastFour:         in.SSNLastFour,
		Status:              domain.StatusPending,
		StatusUpdatedAt:     now,
	}

	applicant := notify.ToApplicant(a, notify.Received(a))
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Notifications.Create(ctx, applicant); err != nil {
			return err
		}
		return r.Notifications.Create(ctx, notify.ToAdmin(a, notify.NewApplication(a)))
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("application submitted", zap.String("application_id", a.PublicID))
	u.metrics.ApplicationSubmitted()
	u.invalidateStats(ctx)
	u.emails.Send(ctx, applicant)
	return a, nil
}

func (u *Usecase) Get(ctx context.Context, publicID string) (*domain.Application, error) {
	return u.repo.GetByPublicID(ctx, publicID)
}

func (u *Usecase) List(ctx context.Context) ([]domain.Application, error) {
	return u.repo.List(ctx)
}

func (u *Usecase) ListByEmail(ctx context.Context, email string) ([]domain.Application, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return u.repo.ListByEmail(ctx, email)
}

// UpdateStatus moves the application along the status table and tells the
// applicant about it.
func (u *Usecase) UpdateStatus(ctx context.Context, publicID string, in UpdateStatusInput) (*domain.Application, error) {
	next, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var (
		out       *domain.Application
		prev      domain.Status
		applicant *notifDomain.Notification
	)
	err = u.uow.WithinApplicationTx(ctx, publicID, func(r uow.Repos, a *domain.Application) error {
		if !a.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, a.Status, next)
		}
		prev = a.Status
		u.apply(a, next, in.Message)
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		applicant = notify.ToApplicant(a, notify.ForStatus(a, u.baseURL))
		if err := r.Notifications.Create(ctx, applicant); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("application status changed",
		zap.String("application_id", publicID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	u.metrics.StatusChanged(string(prev), string(next))
	u.invalidateStats(ctx)
	u.emails.Send(ctx, applicant)
	return out, nil
}

// apply sets the status and issues or clears the tokens that go with it.
func (u *Usecase) apply(a *domain.Application, next domain.Status, message string) {
	now := u.now().UTC()
	a.Status = next
	a.StatusUpdatedAt = now

	switch next {
	case domain.StatusApproved:
		tok := id.NewID32()
		exp := now.Add(u.approvalTTL)
		a.ApprovalToken, a.ApprovalTokenExpiresAt = &tok, &exp
		a.DocumentUploadToken, a.UploadTokenExpiresAt = nil, nil
	case domain.StatusDocumentsRequired:
		msg := strings.TrimSpace(message)
		if msg == "" {
			msg = notify.DefaultDocumentRequest
		}
		a.DocumentRequestMessage = &msg
		// a re-request keeps a still-valid link and extends it
		if a.DocumentUploadToken == nil || !a.UploadTokenValid(now) {
			tok := id.NewID32()
			a.DocumentUploadToken = &tok
		}
		exp := now.Add(u.uploadTTL)
		a.UploadTokenExpiresAt = &exp
	default:
		a.DocumentUploadToken, a.UploadTokenExpiresAt = nil, nil
	}
}

func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	if u.cache != nil {
		var cached Stats
		ok, err := u.cache.Get(ctx, statsKey, &cached)
		if err != nil {
			u.log.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			return &cached, nil
		}
	}

	totals, err := u.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	s := &Stats{GeneratedAt: u.now().UTC()}
	for _, t := range totals {
		s.TotalApplications += t.Count
		s.TotalRequestedAmount += t.Amount
		switch t.Status {
		case domain.StatusPending:
			s.Pending = t.Count
		case domain.StatusUnderReview:
			s.UnderReview = t.Count
		case domain.StatusDocumentsRequired:
			s.DocumentsRequired = t.Count
		case domain.StatusApproved:
			s.Approved = t.Count
			s.ApprovedAmount = t.Amount
		case domain.StatusRejected:
			s.Rejected = t.Count
		}
	}

	if u.cache != nil && u.statsTTL > 0 {
		if err := u.cache.Set(ctx, statsKey, s, u.statsTTL); err != nil {
			u.log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return s, nil
}

// InvalidateStats drops the cached dashboard numbers.
func (u *Usecase) InvalidateStats(ctx context.Context) { u.invalidateStats(ctx) }

func (u *Usecase) invalidateStats(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, statsKey); err != nil {
		u.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
