package http

import (
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	appDomain "loanease/internal/domain/application"
	bankDomain "loanease/internal/domain/banking"
	docDomain "loanease/internal/domain/document"
	notifDomain "loanease/internal/domain/notification"
	"loanease/internal/infrastructure/auth"
	"loanease/internal/infrastructure/logger"
	"loanease/internal/usecase/acceptance"
	"loanease/internal/usecase/application"
	"loanease/internal/usecase/calculator"
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
}

// writeError maps usecase errors onto status codes.
func writeError(c echo.Context, err error) error {
	var fe acceptance.FieldErrors
	if errors.As(err, &fe) {
		keys := make([]string, 0, len(fe))
		for k := range fe {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]FieldError, len(keys))
		for i, k := range keys {
			details[i] = FieldError{Field: k, Message: fe[k]}
		}
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: details})
	}

	code, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, application.ErrInvalidInput),
		errors.Is(err, appDomain.ErrInvalidStatus),
		errors.Is(err, calculator.ErrInvalidQuote),
		errors.Is(err, docDomain.ErrUnsupportedType),
		errors.Is(err, docDomain.ErrEmpty),
		errors.Is(err, notifDomain.ErrInvalidRecipient):
		code, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, docDomain.ErrTooLarge):
		code, msg = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, appDomain.ErrInvalidToken):
		code, msg = http.StatusNotFound, "Invalid or expired link"
	case errors.Is(err, appDomain.ErrTokenExpired):
		code, msg = http.StatusGone, "This link has expired"
	case errors.Is(err, appDomain.ErrNotFound):
		code, msg = http.StatusNotFound, "application not found"
	case errors.Is(err, bankDomain.ErrNotFound),
		errors.Is(err, docDomain.ErrNotFound),
		errors.Is(err, notifDomain.ErrNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, appDomain.ErrInvalidTransition),
		errors.Is(err, bankDomain.ErrAlreadyAccepted):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrBadCredentials):
		code, msg = http.StatusUnauthorized, "Invalid password"
	}
	if code >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("request failed", zap.Error(err))
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}
