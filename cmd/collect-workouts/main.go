package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strava-workout-sync/internal/bootstrap"
	"strava-workout-sync/internal/config"
	"strava-workout-sync/internal/metrics"
	"strava-workout-sync/internal/pipeline"
	"strava-workout-sync/internal/prompt"
)

const pushTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	answersFile := flag.String("answers", "", "YAML file with scripted answers instead of interactive prompts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfg.RequireCollector(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var input prompt.Input = prompt.NewTerminal(os.Stdin, os.Stdout)
	if *answersFile != "" {
		scripted, err := prompt.LoadAnswersFile(*answersFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		input = scripted
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.Close()

	store, err := app.RecordStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open record store: %v\n", err)
		return 1
	}

	collector := pipeline.NewCollector(pipeline.CollectorConfig{
		Source:      app.Strava(),
		Store:       store,
		Input:       input,
		Out:         os.Stdout,
		Logger:      app.Logger,
		Location:    cfg.Location(),
		Year:        cfg.CalendarYear,
		ReportError: app.Reporter.Capture,
	})

	result := collector.Run(ctx)

	pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.PushgatewayURL, "collect_workouts", result.RunID); err != nil {
		app.Logger.Warnw("Metrics push failed", "run_id", result.RunID, "error", err)
	}

	return result.ExitCode()
}
