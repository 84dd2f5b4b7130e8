package acceptance

import (
	"sort"
	"strings"
)

type AcceptInput struct {
	ApplicationID  string
	Token          string
	AccountNumber  string
	RoutingNumber  string
	CardNumber     string
	CardCVV        string
	CardExpiration string // MM/YY
	AgreeToTerms   bool
}

// FieldErrors maps a form field to its message. It is returned as an error
// when banking details fail validation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + f[k]
	}
	return "invalid banking details: " + strings.Join(parts, "; ")
}
