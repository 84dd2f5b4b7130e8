// Package acceptance is the applicant side of loan acceptance: open the
// offer behind an approval link, collect banking details and accept.
package acceptance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"loanease/internal/client/apiclient"
	"loanease/pkg/rules"
)

var (
	ErrInvalid        = errors.New("acceptance: please fix the errors before submitting")
	ErrLinkDead       = errors.New("acceptance: invalid or expired link")
	ErrNotOpened      = errors.New("acceptance: offer not loaded")
	ErrSubmitInFlight = errors.New("acceptance: submission already in progress")
	ErrAccepted       = errors.New("acceptance: loan already accepted")
)

type Form struct {
	AccountNumber  string
	RoutingNumber  string
	CardNumber     string
	CardCVV        string
	CardExpiration string
	AgreeToTerms   bool
}

// Errors maps field name to message. Empty means valid.
type Errors map[string]string

// Validate checks the banking form as of now.
func Validate(f Form, now time.Time) Errors {
	errs := Errors{}
	if !rules.ValidAccountNumber(f.AccountNumber) {
		errs["account_number"] = "Valid account number required (8-17 digits)"
	}
	if !rules.ValidRoutingNumber(f.RoutingNumber) {
		errs["routing_number"] = "Routing number must be 9 digits"
	}
	if !rules.ValidCardNumber(f.CardNumber) {
		errs["card_number"] = "Valid card number required"
	}
	if !rules.ValidCVV(f.CardCVV) {
		errs["card_cvv"] = "Valid CVV required"
	}
	if !rules.ValidCardExpiration(f.CardExpiration, now) {
		errs["card_expiration"] = "Valid expiration required (MM/YY)"
	}
	if !f.AgreeToTerms {
		errs["agree_to_terms"] = "You must agree to the loan terms"
	}
	return errs
}

// FormatCardNumber groups card digits in fours as typed.
func FormatCardNumber(v string) string {
	d := rules.OnlyDigits(v)
	if len(d) > 16 {
		d = d[:16]
	}
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiration turns typed digits into MM/YY.
func FormatExpiration(v string) string {
	d := rules.OnlyDigits(v)
	if len(d) > 4 {
		d = d[:4]
	}
	if len(d) >= 2 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// API is the slice of the service the flow uses.
type API interface {
	VerifyApproval(ctx context.Context, token string) (*apiclient.Offer, error)
	AcceptLoan(ctx context.Context, in apiclient.AcceptLoanRequest, requestID string) error
}

// Flow is one visit to an approval link.
type Flow struct {
	api   API
	token string
	now   func() time.Time
	newID func() string

	offer     *apiclient.Offer
	errs      Errors
	done      bool
	dead      bool
	sending   atomic.Bool
	requestID string
}

func New(api API, token string) *Flow {
	return &Flow{api: api, token: token, now: time.Now, newID: apiclient.NewRequestID, errs: Errors{}}
}

// Open loads the offer. A token error makes the flow terminal.
func (f *Flow) Open(ctx context.Context) (*apiclient.Offer, error) {
	if f.dead {
		return nil, ErrLinkDead
	}
	offer, err := f.api.VerifyApproval(ctx, f.token)
	if err != nil {
		if apiclient.IsTokenError(err) {
			f.dead = true
			return nil, fmt.Errorf("%w: %w", ErrLinkDead, err)
		}
		return nil, err
	}
	f.offer = offer
	return offer, nil
}

func (f *Flow) Offer() *apiclient.Offer { return f.offer }

func (f *Flow) Errors() Errors { return f.errs }

func (f *Flow) Done() bool { return f.done }

// Submit validates form and accepts the loan. A retry of a failed attempt
// reuses its request id so the service sees one acceptance.
func (f *Flow) Submit(ctx context.Context, form Form) error {
	switch {
	case f.dead:
		return ErrLinkDead
	case f.done:
		return ErrAccepted
	case f.offer == nil:
		return ErrNotOpened
	}
	if !f.sending.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer f.sending.Store(false)

	f.errs = Validate(form, f.now())
	if len(f.errs) > 0 {
		return ErrInvalid
	}
	if f.requestID == "" {
		f.requestID = f.newID()
	}
	err := f.api.AcceptLoan(ctx, apiclient.AcceptLoanRequest{
		ApplicationID:  f.offer.ID,
		Token:          f.token,
		AccountNumber:  form.AccountNumber,
		RoutingNumber:  form.RoutingNumber,
		CardNumber:     strings.ReplaceAll(form.CardNumber, " ", ""),
		CardCVV:        form.CardCVV,
		CardExpiration: form.CardExpiration,
		AgreeToTerms:   form.AgreeToTerms,
	}, f.requestID)
	if err != nil {
		if apiclient.IsTokenError(err) {
			f.dead = true
			return fmt.Errorf("%w: %w", ErrLinkDead, err)
		}
		if ae, ok := apiclient.AsAPIError(err); ok {
			for k, v := range ae.FieldMessages() {
				f.errs[k] = v
			}
			if ae.Status == http.StatusConflict && strings.Contains(ae.Message, "already accepted") {
				f.done = true
				return fmt.Errorf("%w: %w", ErrAccepted, err)
			}
			// the stored 4xx would be replayed for this id
			f.requestID = ""
		}
		return err
	}
	f.done = true
	return nil
}

// Notice is the user-facing text for an Open or Submit error.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrLinkDead):
		return "This link is invalid or has expired. Please contact us for a new one."
	case errors.Is(err, ErrAccepted):
		return "This loan has already been accepted."
	case errors.Is(err, ErrInvalid):
		return "Please fix the errors before submitting"
	}
	return apiclient.Notice(err, "Failed to accept loan. Please try again.")
}
