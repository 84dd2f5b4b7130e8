package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"loanease/internal/infrastructure/auth"
)

const claimsKey = "auth.claims"

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(ts *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errJSON(c, http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := ts.Validate(c.Request().Context(), raw)
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				return errJSON(c, http.StatusUnauthorized, "session expired")
			case errors.Is(err, auth.ErrRevokedToken), errors.Is(err, auth.ErrInvalidToken):
				return errJSON(c, http.StatusUnauthorized, "invalid session")
			case err != nil:
				return errJSON(c, http.StatusServiceUnavailable, "session store unavailable")
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Claims returns the admin claims stored by RequireAdmin.
func Claims(c echo.Context) *auth.Claims {
	cl, _ := c.Get(claimsKey).(*auth.Claims)
	return cl
}

func bearer(h string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
