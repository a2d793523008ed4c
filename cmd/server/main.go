package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunaria-app/lunaria/internal/clients/auth"
	"github.com/lunaria-app/lunaria/internal/clients/backend"
	"github.com/lunaria-app/lunaria/internal/config"
	"github.com/lunaria-app/lunaria/internal/database"
	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/internal/modules/accounts"
	"github.com/lunaria-app/lunaria/internal/modules/insights"
	syncmod "github.com/lunaria-app/lunaria/internal/modules/sync"
	"github.com/lunaria-app/lunaria/internal/modules/transactions"
	"github.com/lunaria-app/lunaria/internal/reliability"
	"github.com/lunaria-app/lunaria/internal/scheduler"
	"github.com/lunaria-app/lunaria/internal/server"
	"github.com/lunaria-app/lunaria/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info"})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Msg("Starting Lunaria")

	// Database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Event bus
	bus := events.NewBus(log)

	// Remote clients
	tokens := auth.NewClient(cfg.AuthURL, cfg.AuthRefreshToken, log)
	backendClient, err := backend.NewClient(cfg.BackendURL, tokens, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backend client")
	}

	// Repositories and services
	txRepo := transactions.NewRepository(db.Conn(), log)
	txService := transactions.NewService(txRepo, backendClient, bus, log)

	acctRepo := accounts.NewRepository(db.Conn(), log)
	acctService := accounts.NewService(acctRepo, bus, log)

	reconciler := syncmod.NewReconciler(txRepo, acctRepo, log)
	snapshots := syncmod.NewSnapshotStore(cfg.DataDir)
	syncService := syncmod.NewService(backendClient, reconciler, snapshots, bus, log)

	insightsRepo := insights.NewRepository(db.Conn(), log)
	insightsService := insights.NewService(txRepo, insightsRepo, log)

	// Reliability
	health := reliability.NewDatabaseHealthService(db, log)
	var backups *reliability.BackupService
	if cfg.BackupEnabled() {
		r2, err := reliability.NewR2Client(context.Background(),
			cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Bucket, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize R2 client, cloud backup disabled")
		} else {
			backups = reliability.NewBackupService(db, r2, cfg.DataDir, bus, log)
			log.Info().Str("bucket", cfg.R2Bucket).Msg("Cloud backup enabled")
		}
	} else {
		log.Debug().Msg("Cloud backup credentials not configured")
	}

	// Scheduler
	sched := scheduler.New(log)

	if cfg.SyncInterval > 0 {
		syncJob := syncmod.NewJob(syncService, log)
		if err := sched.AddJob("@every "+cfg.SyncInterval.String(), syncJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register sync job")
		}
	}

	snapshotJob := insights.NewSnapshotJob(acctService, insightsRepo, bus, log)
	if err := sched.AddJob("55 23 * * *", snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register balance snapshot job")
	}

	maintenanceJob := reliability.NewMaintenanceJob(db, health, backups, cfg.DataDir, log)
	if err := sched.AddJob("30 3 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	sched.Start()
	defer sched.Stop()

	// Change hints from the backend trigger an early sync.
	var listener *backend.ChangeListener
	if cfg.BackendWSURL != "" {
		listener = backend.NewChangeListener(cfg.BackendWSURL, func(kind string) {
			log.Debug().Str("kind", kind).Msg("Change hint received")
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if _, err := syncService.Sync(ctx); err != nil {
					log.Warn().Err(err).Msg("Hint-triggered sync failed")
				}
			}()
		}, log)
		listener.Start()
		defer listener.Stop()
	}

	// HTTP server
	srv := server.New(server.Config{
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		Log:          log,
		Transactions: transactions.NewHandler(txService, log),
		Accounts:     accounts.NewHandler(acctService, log),
		Insights:     insights.NewHandler(insightsService, log),
		Sync:         server.NewSyncHandlers(syncService, log),
		System:       server.NewSystemHandlers(db, backups, log),
		Events:       server.NewEventsStreamHandler(bus, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
