// Package sentry reports per-item pipeline failures to Sentry when a DSN is configured.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
	// Transport overrides the HTTP transport (tests)
	Transport sentry.Transport
}

// Reporter captures errors on its own hub. A Reporter without a DSN drops everything.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.SugaredLogger
}

// New creates a reporter. An empty DSN returns a disabled reporter and no error.
func New(cfg Config, logger *zap.SugaredLogger) (*Reporter, error) {
	if cfg.DSN == "" {
		logger.Debugw("Sentry DSN not configured - error tracking disabled")
		return &Reporter{logger: logger}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		Transport:   cfg.Transport,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Filter out credentials
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
				delete(event.Request.Headers, "Cookie")
			}
			return event
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}

	logger.Infow("Sentry initialized", "environment", cfg.Environment)
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), logger: logger}, nil
}

// Enabled reports whether events are sent
func (r *Reporter) Enabled() bool {
	return r.hub != nil
}

// Capture sends err with tags. Its signature matches pipeline.ErrorReporter.
func (r *Reporter) Capture(_ context.Context, err error, tags map[string]string) {
	if err == nil || r.hub == nil {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})

	r.logger.Debugw("Exception captured in Sentry", "error", err)
}

// Flush waits for queued events to be delivered
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r.hub == nil {
		return true
	}
	return r.hub.Flush(timeout)
}
