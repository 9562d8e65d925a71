package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/monstter/backoffice/cmd/backoffice/cli"
	"github.com/monstter/backoffice/internal/app"
	"github.com/monstter/backoffice/internal/auth"
	"github.com/monstter/backoffice/internal/clients"
	clientshttp "github.com/monstter/backoffice/internal/clients/http"
	"github.com/monstter/backoffice/internal/contact"
	contacthttp "github.com/monstter/backoffice/internal/contact/http"
	"github.com/monstter/backoffice/internal/financial"
	financialhttp "github.com/monstter/backoffice/internal/financial/http"
	"github.com/monstter/backoffice/internal/notify"
	"github.com/monstter/backoffice/internal/observability"
	"github.com/monstter/backoffice/internal/partners"
	partnershttp "github.com/monstter/backoffice/internal/partners/http"
	"github.com/monstter/backoffice/internal/payments"
	paymentshttp "github.com/monstter/backoffice/internal/payments/http"
	"github.com/monstter/backoffice/internal/platform/cache"
	"github.com/monstter/backoffice/internal/platform/db"
	"github.com/monstter/backoffice/internal/rbac"
	"github.com/monstter/backoffice/internal/schedules"
	scheduleshttp "github.com/monstter/backoffice/internal/schedules/http"
	"github.com/monstter/backoffice/internal/serviceorders"
	serviceordershttp "github.com/monstter/backoffice/internal/serviceorders/http"
	"github.com/monstter/backoffice/internal/servicereports"
	"github.com/monstter/backoffice/internal/servicereports/export"
	servicereportshttp "github.com/monstter/backoffice/internal/servicereports/http"
	"github.com/monstter/backoffice/jobs"
	"github.com/monstter/backoffice/report"
)

const usage = `usage: backoffice [command]

commands:
  serve              run the HTTP API (default)
  migrate            apply database migrations
  jobs trigger NAME  enqueue a job (reports:dispatch)
  jobs stats         print default queue statistics
  jobs archived      list mail tasks that exhausted their retries
  token -user ID     issue a development bearer token`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	cmd := "serve"
	var args []string
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "jobs":
		err = runJobs(ctx, cfg, args)
	case "token":
		var opts cli.TokenOptions
		opts, err = cli.ParseTokenFlags(args, os.Stderr)
		if err == nil {
			err = cli.IssueToken(cfg.JWTSecret, opts, os.Stdout)
		}
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd, slog.Any("error", err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisOptions().AsynqOpt())
	if err != nil {
		return err
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("jobs trigger: job name required")
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	case "archived":
		tasks, err := jobsCLI.ListArchived(ctx, 20)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s %s last_err=%q\n", t.ID, t.Type, t.LastErr)
		}
	default:
		return fmt.Errorf("jobs: unknown subcommand %q", args[0])
	}
	return nil
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisOptions()); err != nil {
		logger.Warn("redis unavailable, metrics cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	if err := financial.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}
	rbacMiddleware := rbac.Middleware{Logger: logger}

	clientRepo := clients.NewRepository(dbpool)
	clientService := clients.NewService(clientRepo)
	partnerRepo := partners.NewRepository(dbpool)
	partnerService := partners.NewService(partnerRepo)
	paymentRepo := payments.NewRepository(dbpool)
	paymentService := payments.NewService(paymentRepo)
	orderRepo := serviceorders.NewRepository(dbpool)

	var financialCache *financial.Cache
	if redisClient != nil {
		financialCache = financial.NewCache(redisClient, cfg.MetricsCacheTTL, logger)
		if err := financialCache.ListenForInvalidation(ctx, financial.BumpChannel); err != nil {
			logger.Warn("financial cache invalidation listener", slog.Any("error", err))
		}
	}
	financialStore := financial.NewStore(orderRepo, clientRepo, partnerRepo)
	financialService := financial.NewService(financialStore, financialCache, logger, loc)

	jobsClient, err := jobs.NewClient(cfg.RedisOptions().AsynqOpt())
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	notifier, err := notify.NewOrderNotifier(jobsClient, cfg.ManagerEmail, logger, loc)
	if err != nil {
		return err
	}
	orderService := serviceorders.NewService(orderRepo, paymentRepo, partnerService, notifier, financialService, logger, loc)

	reportService := servicereports.NewService(financialStore, clientService, partnerService, logger, loc)
	reportClient := report.NewClient(cfg.GotenbergURL)
	var reportsHandler *servicereportshttp.Handler
	if renderer, err := export.NewRenderer(reportClient, loc); err != nil {
		logger.Warn("report renderer unavailable, pdf export disabled", slog.Any("error", err))
		reportsHandler = servicereportshttp.NewHandler(logger, reportService, nil, partnerService, rbacMiddleware, loc)
	} else {
		reportsHandler = servicereportshttp.NewHandler(logger, reportService, renderer, partnerService, rbacMiddleware, loc)
	}

	scheduleRepo := schedules.NewRepository(dbpool)
	scheduleService := schedules.NewService(scheduleRepo, financialService, jobsClient, logger, loc)

	contactService := contact.NewService(contact.NewRepository(dbpool))
	contactHandler := contacthttp.NewHandler(logger, contactService, rbacMiddleware, cfg.ContactSubmitsPerMinute)

	inspector := asynq.NewInspector(cfg.RedisOptions().AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		Verifier: verifier,
		RBAC:     rbacMiddleware,
		Metrics:  metrics,
		Public:   []app.PublicMounter{contactHandler},
		API: []app.RouteMounter{
			clientshttp.NewHandler(logger, clientService, rbacMiddleware),
			partnershttp.NewHandler(logger, partnerService, rbacMiddleware),
			serviceordershttp.NewHandler(logger, orderService, rbacMiddleware),
			paymentshttp.NewHandler(logger, paymentService, partnerService, rbacMiddleware, loc),
			financialhttp.NewHandler(logger, financialService, rbacMiddleware, loc),
			reportsHandler,
			scheduleshttp.NewHandler(logger, scheduleService, rbacMiddleware),
			contactHandler,
		},
		Report: report.NewHandler(reportClient, logger),
		Jobs:   jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
