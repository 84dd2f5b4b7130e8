package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpadp "loanease/internal/adapter/http"
	"loanease/internal/adapter/repository/mysql"
	"loanease/internal/config"
	"loanease/internal/infrastructure/auth"
	"loanease/internal/infrastructure/cache"
	"loanease/internal/infrastructure/db"
	"loanease/internal/infrastructure/logger"
	"loanease/internal/infrastructure/mailer"
	"loanease/internal/infrastructure/metrics"
	"loanease/internal/infrastructure/storage"
	"loanease/internal/usecase/acceptance"
	"loanease/internal/usecase/admin"
	"loanease/internal/usecase/application"
	"loanease/internal/usecase/document"
	"loanease/internal/usecase/notification"
	"loanease/internal/usecase/notify"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg, log)
	if err != nil {
		return err
	}
	if err := mysql.Migrate(ctx, gdb); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	blobs, err := storage.New(ctx, cfg, gdb, log)
	if err != nil {
		return err
	}

	var mail mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.MailEnabled {
		client, err := mailer.NewSESClient(ctx, cfg.SESRegion)
		if err != nil {
			return err
		}
		mail = mailer.NewSESMailer(client, cfg.MailFrom)
	}

	hash, err := auth.PasswordHash(cfg.AdminPasswordHash, cfg.AdminPassword)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL, auth.NewRedisBlacklist(rdb))

	m := metrics.New()
	emails := notify.NewEmailer(mail, log)

	apps := mysql.NewApplicationRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	appUC := application.NewUsecase(apps, tx,
		application.WithCache(cache.NewJSONCache(rdb, "loanease:"), cfg.StatsCacheTTL),
		application.WithEmailer(emails),
		application.WithMetrics(m),
		application.WithLogger(log),
		application.WithTokenTTLs(cfg.ApprovalTokenTTL, cfg.UploadTokenTTL),
		application.WithBaseURL(cfg.PublicBaseURL),
	)
	acceptUC := acceptance.NewUsecase(apps, mysql.NewBankingRepository(gdb), tx,
		acceptance.WithEmailer(emails),
		acceptance.WithMetrics(m),
		acceptance.WithLogger(log),
		acceptance.WithStatsInvalidator(appUC),
	)
	docUC := document.NewUsecase(apps, mysql.NewDocumentRepository(gdb), blobs, tx,
		document.WithMetrics(m),
		document.WithLogger(log),
	)

	e := httpadp.NewRouter(httpadp.Deps{
		Applications:   httpadp.NewApplicationHandler(appUC),
		Acceptance:     httpadp.NewAcceptanceHandler(acceptUC),
		Documents:      httpadp.NewDocumentHandler(docUC),
		Notifications:  httpadp.NewNotificationHandler(notification.NewUsecase(mysql.NewNotificationRepository(gdb), log)),
		Admin:          httpadp.NewAdminHandler(admin.NewUsecase(hash, tokens, log)),
		Tokens:         tokens,
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Metrics:        m,
		Log:            log,
		AllowOrigins:   []string{cfg.PublicBaseURL},
		HealthChecks: []httpadp.HealthCheck{
			{Name: "db", Ping: func(ctx context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	})

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
