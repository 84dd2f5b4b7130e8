package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid password")

// PasswordHash returns the configured bcrypt hash, deriving one from a
// plaintext password when no hash is configured.
func PasswordHash(hash, plain string) ([]byte, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, err
		}
		return []byte(hash), nil
	}
	if plain == "" {
		return nil, errors.New("no admin password configured")
	}
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
