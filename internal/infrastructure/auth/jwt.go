package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

const (
	issuer    = "loanease"
	roleAdmin = "admin"
)

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Session is what a successful login hands back to the caller.
type Session struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Blacklist records revoked token ids until they would have expired anyway.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// TokenService issues and checks admin session tokens.
type TokenService struct {
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist
	now       func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, bl Blacklist) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, blacklist: bl, now: time.Now}
}

func (s *TokenService) Issue() (*Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   roleAdmin,
			ExpiresAt: jwt.NewNumericDate(exp),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: roleAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, TokenType: "Bearer", ExpiresAt: exp.UTC()}, nil
}

// Validate parses the token and rejects expired, foreign or revoked ones.
func (s *TokenService) Validate(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != roleAdmin || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.Contains(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Revoke blacklists the token id for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.blacklist == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Add(ctx, claims.ID, ttl)
}
