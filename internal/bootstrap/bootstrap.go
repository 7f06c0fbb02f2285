// Package bootstrap builds the adapters used by the command line tools from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"strava-workout-sync/internal/calendar"
	"strava-workout-sync/internal/config"
	"strava-workout-sync/internal/database"
	"strava-workout-sync/internal/firestore"
	"strava-workout-sync/internal/logger"
	"strava-workout-sync/internal/notion"
	"strava-workout-sync/internal/pipeline"
	"strava-workout-sync/internal/sentry"
	"strava-workout-sync/internal/strava"
)

// Release is reported to Sentry; set with -ldflags at build time.
var Release = "dev"

const flushTimeout = 2 * time.Second

// App owns the shared dependencies of one command invocation
type App struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	Reporter *sentry.Reporter

	closers []func() error
}

// New builds the logger and the error reporter
func New(cfg *config.Config) (*App, error) {
	return NewWithLogger(cfg, logger.New(cfg.LogLevel, cfg.LogFormat))
}

// NewWithLogger is New with an explicit logger
func NewWithLogger(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	reporter, err := sentry.New(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     Release,
	}, log)
	if err != nil {
		return nil, err
	}

	return &App{Config: cfg, Logger: log, Reporter: reporter}, nil
}

// RecordStore opens the backend selected by STORE_BACKEND
func (a *App) RecordStore(ctx context.Context) (pipeline.RecordStore, error) {
	cfg := a.Config
	log := a.Logger.With("store", cfg.StoreBackend)

	switch cfg.StoreBackend {
	case config.BackendNotion:
		return notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID, log), nil

	case config.BackendSQLite:
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := db.Init(); err != nil {
			db.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return database.NewStore(db, log), nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		store := firestore.NewStore(client, cfg.FirestoreCollection, log)
		a.closers = append(a.closers, store.Close)
		return store, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// Strava creates the activity source
func (a *App) Strava() *strava.Client {
	return strava.NewClient(a.Config.StravaAccessToken, a.Logger.With("upstream", "strava"))
}

// Calendar creates the Google Calendar client from the credentials file
func (a *App) Calendar(ctx context.Context) (*calendar.Client, error) {
	credentials, err := os.ReadFile(a.Config.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	return calendar.NewClient(ctx, credentials, a.Config.GoogleCalendarID, a.Logger.With("upstream", "google_calendar"))
}

// Close flushes pending error reports and releases every opened store
func (a *App) Close() error {
	if a.Reporter != nil {
		a.Reporter.Flush(flushTimeout)
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()

	return errors.Join(errs...)
}
