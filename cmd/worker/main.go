package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/monstter/backoffice/internal/app"
	"github.com/monstter/backoffice/internal/clients"
	"github.com/monstter/backoffice/internal/financial"
	jobmetrics "github.com/monstter/backoffice/internal/jobs"
	"github.com/monstter/backoffice/internal/partners"
	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/platform/mail"
	"github.com/monstter/backoffice/internal/schedules"
	"github.com/monstter/backoffice/internal/serviceorders"
	"github.com/monstter/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("resolve timezone", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	smtpSender := mail.NewSMTPSender(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err := smtpSender.Verify(ctx); err != nil {
		logger.Warn("smtp verify", slog.Any("error", err))
	}

	financialStore := financial.NewStore(
		serviceorders.NewRepository(pool),
		clients.NewRepository(pool),
		partners.NewRepository(pool),
	)
	// The scheduler reads fresh figures; the metrics cache only serves the API.
	financialService := financial.NewService(financialStore, nil, logger, loc)
	scheduleService := schedules.NewService(schedules.NewRepository(pool), financialService, smtpSender, logger, loc)

	metrics := jobmetrics.NewMetrics(nil)
	dispatchJob := jobs.NewReportsDispatchJob(scheduleService, logger.With(slog.String("job", jobs.TaskReportsDispatch)), metrics)
	mailJob := &jobs.SendEmailJob{Sender: smtpSender, Logger: logger.With(slog.String("job", jobs.TaskTypeSendEmail))}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.RedisOptions().AsynqOpt(),
		Logger:      logger,
		Location:    loc,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskReportsDispatch, Handler: dispatchJob.Handle},
		},
		Middleware: []asynq.MiddlewareFunc{metrics.Middleware},
		Cron:       []jobs.CronRegistration{jobs.ReportsDispatchCron()},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadTimeout: cfg.AppReadTimeout}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = metricsServer.Close() }()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
