package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"loanease/internal/adapter/middleware"
	"loanease/internal/infrastructure/auth"
	"loanease/internal/infrastructure/logger"
	"loanease/internal/infrastructure/metrics"
)

type Deps struct {
	Applications  *ApplicationHandler
	Acceptance    *AcceptanceHandler
	Documents     *DocumentHandler
	Notifications *NotificationHandler
	Admin         *AdminHandler

	Tokens         *auth.TokenService
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Metrics        *metrics.Metrics
	Log            *zap.Logger
	AllowOrigins   []string
	HealthChecks   []HealthCheck
}

// errorHandler renders echo errors (404 routes, bind failures, panics) in
// the ErrorResponse shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	} else {
		logger.FromContext(c.Request().Context()).Error("unhandled error", zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, ErrorResponse{Error: msg})
}

func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler

	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	origins := d.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(
		echomw.Recover(),
		middleware.RequestLogger(log),
		middleware.Metrics(d.Metrics),
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: origins,
			AllowHeaders: []string{
				echo.HeaderContentType, echo.HeaderAuthorization,
				middleware.HeaderRequestID, middleware.HeaderRequestAt,
			},
			ExposeHeaders: []string{middleware.HeaderRequestID, middleware.HeaderReplayed},
		}),
	)

	h := NewHandler(d.HealthChecks...)
	e.GET("/health", h.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	admin := middleware.RequireAdmin(d.Tokens)
	idem := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.Redis != nil {
		idem = middleware.Idempotency(middleware.NewIdempotencyStore(d.Redis, d.IdempotencyTTL), d.Metrics)
	}

	jsonLimit := echomw.BodyLimit("64K")

	api := e.Group("/api")
	api.GET("/", h.Root)
	api.GET("/calculator", h.Calculator)

	api.POST("/admin/login", d.Admin.Login)
	api.POST("/admin/logout", d.Admin.Logout, admin)

	apps := api.Group("/applications")
	apps.POST("", d.Applications.Create, jsonLimit, idem)
	apps.GET("", d.Applications.List, admin)
	apps.GET("/verify/:token", d.Acceptance.Verify)
	apps.POST("/accept-loan", d.Acceptance.Accept, jsonLimit, idem)
	apps.GET("/document-upload/:token", d.Documents.VerifyUploadToken)
	apps.GET("/:id", d.Applications.Get, admin)
	apps.PATCH("/:id/status", d.Applications.UpdateStatus, admin)
	apps.GET("/:id/banking-info", d.Acceptance.BankingInfo, admin)
	apps.POST("/:id/upload-document", d.Documents.Upload, echomw.BodyLimit("11M"))
	apps.GET("/:id/documents", d.Documents.List, admin)
	apps.GET("/:id/documents/:doc_id", d.Documents.Download, admin)

	api.GET("/applicants/:email/applications", d.Applications.ListByEmail)

	notifs := api.Group("/notifications")
	notifs.GET("", d.Notifications.List, admin)
	notifs.GET("/unread-count", d.Notifications.UnreadCount, admin)
	notifs.GET("/applicant/:email", d.Notifications.ListForApplicant)
	notifs.PATCH("/:id/read", d.Notifications.MarkRead, admin)

	api.GET("/stats", d.Applications.Stats, admin)
	return e
}
