package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends every registered metric to a Prometheus Pushgateway under job.
func Push(ctx context.Context, gatewayURL, job, runID string) error {
	return PushFrom(ctx, prometheus.DefaultGatherer, gatewayURL, job, runID)
}

// PushFrom is Push with an explicit gatherer.
func PushFrom(ctx context.Context, g prometheus.Gatherer, gatewayURL, job, runID string) error {
	if gatewayURL == "" {
		return nil
	}

	pusher := push.New(gatewayURL, job).Gatherer(g)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}

	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
