// Package rules holds the field rules shared by the intake client and the API
// so both sides reject the same input with the same wording.
package rules

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	reEmail  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reZIP    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	reDigits = regexp.MustCompile(`^\d+$`)
	reNonDig = regexp.MustCompile(`\D`)
	reCardEx = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// USStates is the fixed 50-entry state set offered by the intake form.
var USStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// EmploymentStatuses in display order.
var EmploymentStatuses = []string{
	"employed", "part_time", "self_employed", "retired", "unemployed", "student",
}

const (
	MaxUploadBytes = 10 << 20
	DateLayout     = "2006-01-02"
)

var uploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func ValidEmail(s string) bool { return reEmail.MatchString(s) }

func ValidZIP(s string) bool { return reZIP.MatchString(s) }

func ValidState(s string) bool { return slices.Contains(USStates, s) }

func ValidEmployment(s string) bool { return slices.Contains(EmploymentStatuses, s) }

// OnlyDigits strips everything but digits.
func OnlyDigits(s string) string { return reNonDig.ReplaceAllString(s, "") }

// PhoneDigits is the stored form of a phone number.
func PhoneDigits(s string) string { return OnlyDigits(s) }

func ValidPhone(s string) bool {
	n := len(PhoneDigits(s))
	return n >= 10 && n <= 15
}

// Digits reports whether s is all digits and its length is within [min, max].
func Digits(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max && reDigits.MatchString(s)
}

func ValidSSNLastFour(s string) bool { return Digits(s, 4, 4) }

func ValidAccountNumber(s string) bool { return Digits(s, 8, 17) }

func ValidRoutingNumber(s string) bool { return Digits(s, 9, 9) }

func ValidCardNumber(s string) bool { return Digits(strings.ReplaceAll(s, " ", ""), 15, 16) }

func ValidCVV(s string) bool { return Digits(s, 3, 4) }

// ValidCardExpiration accepts MM/YY for the current month or later.
func ValidCardExpiration(s string, now time.Time) bool {
	if !reCardEx.MatchString(s) {
		return false
	}
	exp, err := time.Parse("01/06", s)
	if err != nil {
		return false
	}
	cur := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !exp.Before(cur)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// UploadContentType returns the canonical content type for an accepted
// document, or "" when the file type is not accepted.
func UploadContentType(filename, contentType string) string {
	want, ok := uploadTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return ""
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ct != "" && ct != "application/octet-stream" && ct != want {
		return ""
	}
	return want
}

// LastFour returns the trailing four characters of s.
func LastFour(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

