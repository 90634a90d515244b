package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/synapse-directory/synapse/internal/app"
	"github.com/synapse-directory/synapse/internal/audit"
	"github.com/synapse-directory/synapse/internal/business"
	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/observability"
	"github.com/synapse-directory/synapse/internal/platform/cache"
	"github.com/synapse-directory/synapse/internal/platform/db"
	"github.com/synapse-directory/synapse/internal/shared"
	"github.com/synapse-directory/synapse/internal/view"
	"github.com/synapse-directory/synapse/jobs"
)

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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("synapse", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	history, closeHistory, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	directoryClient := directory.NewClient(cfg.DirectoryEndpoints(),
		directory.WithHTTPClient(&http.Client{Timeout: cfg.DirectoryTimeout}),
		directory.WithObserver(metrics),
	)

	var maps location.MapProvider = location.StaticProvider{}
	if cfg.GoogleMapsAPIKey != "" {
		places := location.NewPlacesProvider(cfg.GoogleMapsAPIKey, logger)
		places.Start(ctx)
		maps = places
	}

	jobClient := jobs.NewClient(cfg.RedisOptions().AsynqOpt())
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(cfg.RedisOptions().AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "synapse_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	businessHandler := business.NewHandler(business.Deps{
		Logger:       logger,
		Templates:    templates,
		CSRF:         csrfManager,
		Directory:    directoryClient,
		Guard:        shared.NewRedisGuard(redisClient, cfg.GuardTTL),
		Scheduler:    jobs.NewRefreshScheduler(jobClient, logger),
		History:      history,
		Maps:         maps,
		MapsAPIKey:   cfg.GoogleMapsAPIKey,
		RefreshDelay: cfg.ApprovalRefreshDelay,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		BusinessHandler: businessHandler,
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openHistory connects the decision history when PG_DSN is set. Without it
// the returned recorder is disabled.
func openHistory(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*audit.Recorder, func(), error) {
	if !cfg.HistoryEnabled() {
		logger.Info("decision history disabled")
		return audit.NewRecorder(nil, logger), func() {}, nil
	}
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return nil, nil, err
	}
	err = db.InTx(ctx, pool, func(tx pgx.Tx) error {
		return audit.NewPGStore(tx).EnsureSchema(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return audit.NewRecorder(audit.NewPGStore(pool), logger), pool.Close, nil
}
