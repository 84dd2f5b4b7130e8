// Package wizard drives the three-step loan application form: step state,
// per-step validation and the single creation request at the end.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"loanease/internal/client/apiclient"
	"loanease/pkg/rules"
)

type Step int

const (
	StepPersonal Step = iota + 1
	StepAddress
	StepFinancial
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "Personal Info"
	case StepAddress:
		return "Address"
	case StepFinancial:
		return "Financial Info"
	case StepSubmitted:
		return "Submitted"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Field names match the API's JSON keys.
const (
	FieldFirstName        = "first_name"
	FieldLastName         = "last_name"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldDateOfBirth      = "date_of_birth"
	FieldStreetAddress    = "street_address"
	FieldCity             = "city"
	FieldState            = "state"
	FieldZipCode          = "zip_code"
	FieldAnnualIncome     = "annual_income"
	FieldEmploymentStatus = "employment_status"
	FieldLoanAmount       = "loan_amount_requested"
	FieldSSNLastFour      = "ssn_last_four"
)

var (
	ErrSubmitInFlight = errors.New("wizard: submission already in progress")
	ErrInvalid        = errors.New("wizard: please fix the highlighted fields")
	ErrNotFinalStep   = errors.New("wizard: submit is only available on the last step")
	ErrUnknownField   = errors.New("wizard: unknown field")
)

// Draft is the working set of the form. Income and amount stay as typed
// until the payload is built.
type Draft struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth time.Time

	StreetAddress string
	City          string
	State         string
	ZipCode       string

	AnnualIncome        string
	EmploymentStatus    string
	LoanAmountRequested string
	SSNLastFour         string
}

// Errors maps field name to message. Empty means valid.
type Errors map[string]string

func (e Errors) Valid() bool { return len(e) == 0 }

// ValidateStep checks the fields that belong to step.
func ValidateStep(step Step, d Draft) Errors {
	errs := Errors{}
	switch step {
	case StepPersonal:
		if strings.TrimSpace(d.FirstName) == "" {
			errs[FieldFirstName] = "First name is required"
		}
		if strings.TrimSpace(d.LastName) == "" {
			errs[FieldLastName] = "Last name is required"
		}
		switch {
		case strings.TrimSpace(d.Email) == "":
			errs[FieldEmail] = "Email is required"
		case !rules.ValidEmail(d.Email):
			errs[FieldEmail] = "Invalid email format"
		}
		switch {
		case strings.TrimSpace(d.Phone) == "":
			errs[FieldPhone] = "Phone is required"
		case !rules.ValidPhone(d.Phone):
			errs[FieldPhone] = "Enter a valid phone number"
		}
		if d.DateOfBirth.IsZero() {
			errs[FieldDateOfBirth] = "Date of birth is required"
		}
	case StepAddress:
		if strings.TrimSpace(d.StreetAddress) == "" {
			errs[FieldStreetAddress] = "Street address is required"
		}
		if strings.TrimSpace(d.City) == "" {
			errs[FieldCity] = "City is required"
		}
		switch {
		case d.State == "":
			errs[FieldState] = "State is required"
		case !rules.ValidState(d.State):
			errs[FieldState] = "Select a valid US state"
		}
		switch {
		case strings.TrimSpace(d.ZipCode) == "":
			errs[FieldZipCode] = "ZIP code is required"
		case !rules.ValidZIP(d.ZipCode):
			errs[FieldZipCode] = "Enter a valid ZIP code"
		}
	case StepFinancial:
		if msg := positive(d.AnnualIncome, "Annual income is required", "Income must be greater than 0"); msg != "" {
			errs[FieldAnnualIncome] = msg
		}
		switch {
		case d.EmploymentStatus == "":
			errs[FieldEmploymentStatus] = "Employment status is required"
		case !rules.ValidEmployment(d.EmploymentStatus):
			errs[FieldEmploymentStatus] = "Select a valid employment status"
		}
		if msg := positive(d.LoanAmountRequested, "Loan amount is required", "Loan amount must be greater than 0"); msg != "" {
			errs[FieldLoanAmount] = msg
		}
		switch {
		case strings.TrimSpace(d.SSNLastFour) == "":
			errs[FieldSSNLastFour] = "SSN last 4 digits required"
		case !rules.ValidSSNLastFour(d.SSNLastFour):
			errs[FieldSSNLastFour] = "Enter exactly 4 digits"
		}
	}
	return errs
}

// positive returns the message for a missing or non-positive amount.
func positive(raw, missing, notPositive string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return missing
	}
	v, err := parseAmount(raw)
	if err != nil || v <= 0 {
		return notPositive
	}
	return ""
}

var errNotFinite = errors.New("amount is not a finite number")

// parseAmount reads a plain decimal amount, ignoring thousands separators.
// NaN and infinities are rejected.
func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// Payload normalizes a validated draft for the creation request.
func Payload(d Draft) apiclient.CreateApplicationRequest {
	income, _ := parseAmount(d.AnnualIncome)
	amount, _ := parseAmount(d.LoanAmountRequested)
	dob := ""
	if !d.DateOfBirth.IsZero() {
		dob = d.DateOfBirth.Format(rules.DateLayout)
	}
	return apiclient.CreateApplicationRequest{
		FirstName:           strings.TrimSpace(d.FirstName),
		LastName:            strings.TrimSpace(d.LastName),
		Email:               strings.TrimSpace(d.Email),
		Phone:               rules.PhoneDigits(d.Phone),
		DateOfBirth:         dob,
		StreetAddress:       strings.TrimSpace(d.StreetAddress),
		City:                strings.TrimSpace(d.City),
		State:               d.State,
		ZipCode:             strings.TrimSpace(d.ZipCode),
		AnnualIncome:        income,
		EmploymentStatus:    d.EmploymentStatus,
		LoanAmountRequested: amount,
		SSNLastFour:         strings.TrimSpace(d.SSNLastFour),
	}
}

// Submitter issues the creation request.
type Submitter interface {
	CreateApplication(ctx context.Context, in apiclient.CreateApplicationRequest, requestID string) (*apiclient.Application, error)
}

// Wizard owns one form session. Only Submit may be called concurrently;
// everything else belongs to the goroutine driving the form.
type Wizard struct {
	api     Submitter
	draft   Draft
	errs    Errors
	step    Step
	newID   func() string
	sending atomic.Bool

	// reused across retries of an unchanged draft
	requestID string
}

func New(api Submitter) *Wizard {
	return &Wizard{api: api, errs: Errors{}, step: StepPersonal, newID: apiclient.NewRequestID}
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Draft() Draft { return w.draft }

func (w *Wizard) Submitting() bool { return w.sending.Load() }

// Errors returns a copy of the current field errors.
func (w *Wizard) Errors() Errors {
	out := make(Errors, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

// Set edits one text field and clears that field's error only.
func (w *Wizard) Set(field, value string) error {
	d := &w.draft
	switch field {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	case FieldDateOfBirth:
		t, err := time.Parse(rules.DateLayout, strings.TrimSpace(value))
		if err != nil {
			t = time.Time{}
		}
		d.DateOfBirth = t
	case FieldStreetAddress:
		d.StreetAddress = value
	case FieldCity:
		d.City = value
	case FieldState:
		d.State = strings.ToUpper(strings.TrimSpace(value))
	case FieldZipCode:
		d.ZipCode = value
	case FieldAnnualIncome:
		d.AnnualIncome = value
	case FieldEmploymentStatus:
		d.EmploymentStatus = value
	case FieldLoanAmount:
		d.LoanAmountRequested = value
	case FieldSSNLastFour:
		d.SSNLastFour = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	w.touch(field)
	return nil
}

// SetDateOfBirth sets the date picked from a calendar.
func (w *Wizard) SetDateOfBirth(t time.Time) {
	w.draft.DateOfBirth = t
	w.touch(FieldDateOfBirth)
}

func (w *Wizard) touch(field string) {
	delete(w.errs, field)
	w.requestID = ""
}

// Continue validates the current step and advances when it is clean.
func (w *Wizard) Continue() bool {
	if w.step >= StepFinancial {
		return false
	}
	errs := ValidateStep(w.step, w.draft)
	if !errs.Valid() {
		w.errs = errs
		return false
	}
	w.errs = Errors{}
	w.step++
	return true
}

// Back moves one step back without validating.
func (w *Wizard) Back() {
	if w.step > StepPersonal && w.step < StepSubmitted {
		w.step--
	}
}

// Submit re-validates the last step and sends exactly one creation request.
// On failure the draft is kept and the same request id is reused on retry.
func (w *Wizard) Submit(ctx context.Context) (string, error) {
	if w.step != StepFinancial {
		return "", ErrNotFinalStep
	}
	if !w.sending.CompareAndSwap(false, true) {
		return "", ErrSubmitInFlight
	}
	defer w.sending.Store(false)

	if errs := ValidateStep(StepFinancial, w.draft); !errs.Valid() {
		w.errs = errs
		return "", ErrInvalid
	}
	if w.requestID == "" {
		w.requestID = w.newID()
	}
	app, err := w.api.CreateApplication(ctx, Payload(w.draft), w.requestID)
	if err != nil {
		if ae, ok := apiclient.AsAPIError(err); ok && len(ae.Details) > 0 {
			for f, m := range ae.FieldMessages() {
				w.errs[f] = m
			}
		}
		return "", fmt.Errorf("submit application: %w", err)
	}
	w.step = StepSubmitted
	w.requestID = ""
	return app.ID, nil
}

// Notice is the user-facing text for a Submit error.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrNotFinalStep):
		return strings.TrimPrefix(err.Error(), "wizard: ")
	}
	return apiclient.Notice(err, "Failed to submit application. Please try again.")
}
