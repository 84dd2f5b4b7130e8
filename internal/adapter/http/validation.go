package http

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"loanease/pkg/rules"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct {
	v   *validator.Validate
	now func() time.Time
}

func NewValidator() *CustomValidator {
	cv := &CustomValidator{v: validator.New(), now: time.Now}
	v := cv.v

	// report json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return rules.ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return rules.ValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("usstate", func(fl validator.FieldLevel) bool {
		return rules.ValidState(fl.Field().String())
	})
	_ = v.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return rules.ValidZIP(fl.Field().String())
	})
	_ = v.RegisterValidation("employment", func(fl validator.FieldLevel) bool {
		return rules.ValidEmployment(fl.Field().String())
	})
	_ = v.RegisterValidation("ssn4", func(fl validator.FieldLevel) bool {
		return rules.ValidSSNLastFour(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return rules.ValidDate(fl.Field().String())
	})
	// digits=min-max; spaces are ignored
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		lo, hi, ok := digitRange(fl.Param())
		if !ok {
			return false
		}
		return rules.Digits(strings.ReplaceAll(fl.Field().String(), " ", ""), lo, hi)
	})
	// MM/YY, current month or later
	_ = v.RegisterValidation("cardexp", func(fl validator.FieldLevel) bool {
		return rules.ValidCardExpiration(fl.Field().String(), cv.now())
	})

	return cv
}

func digitRange(param string) (int, int, bool) {
	a, b, found := strings.Cut(param, "-")
	if !found {
		b = a
	}
	lo, err1 := strconv.Atoi(a)
	hi, err2 := strconv.Atoi(b)
	return lo, hi, err1 == nil && err2 == nil && lo <= hi
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

var labels = map[string]string{
	"first_name":               "First name",
	"last_name":                "Last name",
	"email":                    "Email",
	"phone":                    "Phone",
	"date_of_birth":            "Date of birth",
	"street_address":           "Street address",
	"city":                     "City",
	"state":                    "State",
	"zip_code":                 "ZIP code",
	"annual_income":            "Annual income",
	"employment_status":        "Employment status",
	"loan_amount_requested":    "Loan amount",
	"ssn_last_four":            "SSN last 4 digits",
	"password":                 "Password",
	"status":                   "Status",
	"document_request_message": "Document request message",
}

// Field-specific messages shown in the forms.
var fieldMessages = map[string]string{
	"email":                 "Invalid email format",
	"phone":                 "Enter a valid phone number",
	"date_of_birth":         "Enter a valid date (YYYY-MM-DD)",
	"state":                 "Select a valid US state",
	"zip_code":              "Enter a valid ZIP code",
	"annual_income":         "Income must be greater than 0",
	"employment_status":     "Select a valid employment status",
	"loan_amount_requested": "Loan amount must be greater than 0",
	"ssn_last_four":         "Enter exactly 4 digits",
	"account_number":        "Valid account number required (8-17 digits)",
	"routing_number":        "Routing number must be 9 digits",
	"card_number":           "Valid card number required",
	"card_cvv":              "Valid CVV required",
	"card_expiration":       "Valid expiration required (MM/YY)",
	"agree_to_terms":        "You must agree to the loan terms",
}

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		out = append(out, FieldError{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	field := e.Field()
	if e.Tag() == "required" || e.Tag() == "notblank" {
		if field == "ssn_last_four" {
			return "SSN last 4 digits required"
		}
		if label, ok := labels[field]; ok {
			return label + " is required"
		}
	}
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return e.Tag() + " validation failed"
	}
}
