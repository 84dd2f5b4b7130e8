package acceptance

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appDomain "loanease/internal/domain/application"
	bankDomain "loanease/internal/domain/banking"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/domain/uow"
	"loanease/internal/infrastructure/metrics"
	"loanease/internal/usecase/notify"
	"loanease/pkg/rules"
)

// StatsInvalidator drops cached dashboard numbers after an acceptance.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

type Usecase struct {
	apps    appDomain.Repository
	banking bankDomain.Repository
	uow     uow.UnitOfWork
	emails  *notify.Emailer
	metrics *metrics.Metrics
	stats   StatsInvalidator
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Usecase)

func WithEmailer(e *notify.Emailer) Option { return func(u *Usecase) { u.emails = e } }

func WithMetrics(m *metrics.Metrics) Option { return func(u *Usecase) { u.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(u *Usecase) { u.log = l } }

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithStatsInvalidator(s StatsInvalidator) Option { return func(u *Usecase) { u.stats = s } }

func NewUsecase(apps appDomain.Repository, banking bankDomain.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{apps: apps, banking: banking, uow: tx, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// checkOffer reports whether a can still accept its loan offer.
func (u *Usecase) checkOffer(a *appDomain.Application) error {
	if a.Status != appDomain.StatusApproved || a.ApprovalToken == nil {
		return appDomain.ErrInvalidToken
	}
	if !a.ApprovalTokenValid(u.now()) {
		return appDomain.ErrTokenExpired
	}
	if a.BankingInfoSubmitted {
		return bankDomain.ErrAlreadyAccepted
	}
	return nil
}

// Verify resolves an approval link to its application.
func (u *Usecase) Verify(ctx context.Context, token string) (*appDomain.Application, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appDomain.ErrInvalidToken
	}
	a, err := u.apps.GetByApprovalToken(ctx, token)
	if errors.Is(err, appDomain.ErrNotFound) {
		return nil, appDomain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if err := u.checkOffer(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the banking form; it never looks at the token.
func (u *Usecase) Validate(in AcceptInput) FieldErrors {
	errs := FieldErrors{}
	if !rules.ValidAccountNumber(in.AccountNumber) {
		errs["account_number"] = "Valid account number required (8-17 digits)"
	}
	if !rules.ValidRoutingNumber(in.RoutingNumber) {
		errs["routing_number"] = "Routing number must be 9 digits"
	}
	if !rules.ValidCardNumber(in.CardNumber) {
		errs["card_number"] = "Valid card number required"
	}
	if !rules.ValidCVV(in.CardCVV) {
		errs["card_cvv"] = "Valid CVV required"
	}
	if !rules.ValidCardExpiration(in.CardExpiration, u.now()) {
		errs["card_expiration"] = "Valid expiration required (MM/YY)"
	}
	if !in.AgreeToTerms {
		errs["agree_to_terms"] = "You must agree to the loan terms"
	}
	return errs
}

// Accept records the applicant's banking details for an approved loan.
// Each application can be accepted once.
func (u *Usecase) Accept(ctx context.Context, in AcceptInput) (*bankDomain.Info, error) {
	if errs := u.Validate(in); len(errs) > 0 {
		return nil, errs
	}

	var (
		info             *bankDomain.Info
		applicant, admin *notifDomain.Notification
	)
	err := u.uow.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, a *appDomain.Application) error {
		if a.ApprovalToken == nil || *a.ApprovalToken != in.Token {
			return appDomain.ErrInvalidToken
		}
		if err := u.checkOffer(a); err != nil {
			return err
		}

		info = &bankDomain.Info{
			ApplicationID:   a.ID,
			AccountLastFour: rules.LastFour(in.AccountNumber),
			RoutingLastFour: rules.LastFour(in.RoutingNumber),
			CardLastFour:    rules.LastFour(in.CardNumber),
			CardExpiration:  in.CardExpiration,
			AcceptedAt:      u.now().UTC(),
		}
		if err := r.Banking.Create(ctx, info); err != nil {
			return err
		}
		a.BankingInfoSubmitted = true
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}

		toApplicant, toAdmin := notify.LoanAccepted(a)
		applicant, admin = notify.ToApplicant(a, toApplicant), notify.ToAdmin(a, toAdmin)
		if err := r.Notifications.Create(ctx, applicant); err != nil {
			return err
		}
		return r.Notifications.Create(ctx, admin)
	})
	if errors.Is(err, appDomain.ErrNotFound) {
		// an unknown application id is reported like a bad link
		return nil, appDomain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	u.log.Info("loan accepted", zap.String("application_id", in.ApplicationID))
	u.metrics.LoanAccepted()
	if u.stats != nil {
		u.stats.InvalidateStats(ctx)
	}
	u.emails.Send(ctx, applicant)
	return info, nil
}

// BankingInfo returns the masked banking details of an application.
func (u *Usecase) BankingInfo(ctx context.Context, publicID string) (*bankDomain.Info, error) {
	a, err := u.apps.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return u.banking.GetByApplicationID(ctx, a.ID)
}
