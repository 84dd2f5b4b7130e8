package id

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
// Used for approval and upload tokens.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// IsID32 reports whether s has the NewID32 shape.
func IsID32(s string) bool { return reHex32.MatchString(s) }

// NewPublicID returns a random UUID string for records exposed over the API.
func NewPublicID() string { return uuid.NewString() }

// IsPublicID reports whether s parses as a UUID.
func IsPublicID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
