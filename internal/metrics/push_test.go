package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushFrom(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	err := PushFrom(context.Background(), reg, server.URL, PipelineCollect, "run-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/"+PipelineCollect), "path %s", gotPath)
	assert.Contains(t, gotPath, "/run_id/run-1")
}

func TestPushFrom_NoGateway(t *testing.T) {
	err := PushFrom(context.Background(), prometheus.NewRegistry(), "", PipelineCollect, "run-1")
	assert.NoError(t, err)
}

func TestPushFrom_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	err := PushFrom(context.Background(), reg, server.URL, PipelineCalendar, "")
	assert.Error(t, err)
}
