package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/internal/handler"
	"github.com/construtora/agenda-api/internal/persistence"
	"github.com/construtora/agenda-api/internal/repository"
	"github.com/construtora/agenda-api/internal/server"
	"github.com/construtora/agenda-api/internal/service"
	"github.com/construtora/agenda-api/pkg/cache"
	"github.com/construtora/agenda-api/pkg/config"
	"github.com/construtora/agenda-api/pkg/database"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable; cache and realtime backend disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	localDB, err := database.NewSQLite(cfg.Persistence.LocalBackupPath)
	if err != nil {
		return fmt.Errorf("open local backup: %w", err)
	}
	defer localDB.Close()
	local, err := persistence.NewLocalBackend(ctx, localDB)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	store := persistence.NewStore(
		selectBackend(cfg.Persistence.Primary, db, redisClient),
		selectBackend(cfg.Persistence.Mirror, db, redisClient),
		local,
		persistence.Options{
			Timeout:      cfg.Persistence.Timeout,
			Attempts:     cfg.Persistence.Retries,
			RetryDelay:   cfg.Persistence.RetryDelay,
			SyncInterval: cfg.Persistence.SyncInterval,
			Logger:       logr,
			Metrics:      metrics,
		},
	)

	users := repository.NewUserRepository(db)
	departments := repository.NewDepartmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo.Enabled())

	validate := service.NewValidator()
	loc := cfg.Location()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(users, departments, cacheSvc, validate, logr)
	departmentSvc := service.NewDepartmentService(departments, users, cacheSvc, validate, logr)
	eventSvc := service.NewEventService(store, users, cacheSvc, validate, logr)
	taskSvc := service.NewTaskService(store, users, cacheSvc, validate, logr, loc)
	calendarSvc := service.NewCalendarService(eventSvc, taskSvc, cacheSvc, cfg.Cache.TTL, logr, loc)
	agendaSvc := service.NewAgendaService(eventSvc, taskSvc, logr, loc)
	exportSvc := service.NewExportService(eventSvc, taskSvc, users, nil, nil, logr, loc)
	diagnosticsSvc := service.NewDiagnosticsService(store, cacheSvc, users, departments, metrics, version, logr)

	router := server.NewRouter(server.Options{
		Config:  cfg,
		Logger:  logr,
		Metrics: metrics,
		Tokens:  authSvc,
		Audit:   users,
	}, server.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Departments: handler.NewDepartmentHandler(departmentSvc),
		Events:      handler.NewEventHandler(eventSvc),
		Tasks:       handler.NewTaskHandler(taskSvc),
		Calendar:    handler.NewCalendarHandler(calendarSvc),
		Agenda:      handler.NewAgendaHandler(agendaSvc, exportSvc),
		Admin:       handler.NewAdminHandler(diagnosticsSvc),
		Metrics:     handler.NewMetricsHandler(metrics, store),
	})

	store.Start(ctx)
	defer store.Stop()

	janitor := service.NewCacheJanitor(cacheSvc, cfg.Cache.ClearInterval, logr)
	janitor.Start(ctx)
	defer janitor.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("primary", store.PrimaryName()),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// selectBackend maps a configured backend name onto a connection. Unknown or
// unavailable backends yield nil, which the store treats as absent.
func selectBackend(name string, db *sqlx.DB, client *redis.Client) persistence.Backend {
	switch name {
	case config.BackendPostgres:
		return persistence.NewPostgresBackend(db)
	case config.BackendRealtime:
		if client == nil {
			return nil
		}
		return persistence.NewRealtimeBackend(client, cfg.Persistence.RealtimeNamespace)
	default:
		return nil
	}
}
