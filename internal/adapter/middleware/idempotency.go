package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"loanease/internal/infrastructure/logger"
	"loanease/internal/infrastructure/metrics"
)

// teeWriter copies the response body while it is written.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency makes unsafe requests repeatable under X-Request-Id.
// The first request runs the handler and its response is stored; a repeat
// with the same body gets the stored response with Idempotent-Replayed set.
// A repeat with a different body, or while the first is still running, is a
// 409. Responses of 500 and above are not stored so the client can retry.
func Idempotency(store *IdempotencyStore, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID, reqAt, err := readIdempotencyHeaders(req.Header, store.now())
			if err != nil {
				return errJSON(c, http.StatusBadRequest, err.Error())
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					// body limit overflow arrives as an echo 413
					var he *echo.HTTPError
					if errors.As(err, &he) {
						return he
					}
					return errJSON(c, http.StatusBadRequest, "could not read request body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			fp := fingerprint(body)

			route := c.Path()
			key := storeKey(req.Method, route, reqID)
			log := logger.FromContext(req.Context()).With(zap.String("idempotency_key", key))
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			reserved, err := store.reserve(ctx, key, storedResponse{Fingerprint: fp, RequestAtMS: reqAt.UnixMilli()})
			if err != nil {
				log.Error("idempotency store unavailable", zap.Error(err))
				return errJSON(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !reserved {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.Warn("idempotency entry load failed", zap.Error(err))
				}
				switch {
				case prev.Fingerprint != "" && prev.Fingerprint != fp:
					m.IdempotencyOutcome(route, "conflict")
					return errJSON(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				case !prev.Pending && prev.Status != 0:
					m.IdempotencyOutcome(route, "replayed")
					c.Response().Header().Set(HeaderReplayed, "true")
					ct := prev.ContentType
					if ct == "" {
						ct = echo.MIMEApplicationJSON
					}
					return c.Blob(prev.Status, ct, prev.Body)
				default:
					m.IdempotencyOutcome(route, "conflict")
					return errJSON(c, http.StatusConflict, "request is already in progress")
				}
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			bg := context.WithoutCancel(ctx)
			if tee.status >= http.StatusInternalServerError {
				m.IdempotencyOutcome(route, "released")
				if err := store.release(bg, key); err != nil {
					log.Warn("idempotency key release failed", zap.Error(err))
				}
				return nil
			}
			final := storedResponse{
				Status:      tee.status,
				ContentType: tee.Header().Get(echo.HeaderContentType),
				Body:        tee.body.Bytes(),
				Fingerprint: fp,
				RequestAtMS: reqAt.UnixMilli(),
			}
			if err := store.complete(bg, key, final); err != nil {
				log.Warn("idempotency entry save failed", zap.Error(err))
				return nil
			}
			m.IdempotencyOutcome(route, "stored")
			return nil
		}
	}
}
