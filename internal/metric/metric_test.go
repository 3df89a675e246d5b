package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/threadalert/internal/harness"
)

func TestNewRecorder_NilRegisterer(t *testing.T) {
	_, err := NewRecorder(nil)
	assert.Error(t, err)
}

func TestNewRecorder_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.ErrorContains(t, err, "register collector")
}

func TestRecorder_RecordsHarnessActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = harness.Execute(func() error { return nil }).Repeat(1).WithMetrics(rec).Verify()
	require.NoError(t, err)

	err = harness.Execute(func() error { return boom }).
		Repeat(10).
		Timeout(5 * time.Second).
		WithMetrics(rec).
		Verify()
	require.ErrorIs(t, err, boom)

	assert.Equal(t, float64(11), testutil.ToFloat64(rec.invocations))
	assert.Equal(t, float64(10), testutil.ToFloat64(rec.failures))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.runs.WithLabelValues("completed", "completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.runs.WithLabelValues("failed", "failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(rec.unfinished))
	assert.Equal(t, uint64(2), histogramCount(t, reg, "threadalert_verify_duration_seconds"))
}

func TestRecorder_UnfinishedGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.RecordResult(&harness.Result{State: harness.StateTimedOut, Remaining: 99, Duration: 100 * time.Millisecond})

	assert.Equal(t, float64(99), testutil.ToFloat64(rec.unfinished))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.runs.WithLabelValues("timed_out", "timed_out")))
}

func TestRecorder_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.RecordInvocation(nil)
	rec.RecordInvocation(errors.New("x"))

	expected := `
# HELP threadalert_action_failures_total Total number of action invocations that returned an error or panicked
# TYPE threadalert_action_failures_total counter
threadalert_action_failures_total 1
# HELP threadalert_invocations_total Total number of action invocations that returned
# TYPE threadalert_invocations_total counter
threadalert_invocations_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"threadalert_invocations_total", "threadalert_action_failures_total"))
}

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)
	rec.RecordInvocation(nil)

	ctx, cancel := context.WithCancel(context.Background())
	addr, done, err := Serve(ctx, "127.0.0.1:0", reg, nil)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "threadalert_invocations_total 1")

	resp, err = http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_BadAddress(t *testing.T) {
	_, _, err := Serve(context.Background(), "256.0.0.1:bad", prometheus.NewRegistry(), nil)
	assert.Error(t, err)
}

func histogramCount(t *testing.T, g prometheus.Gatherer, name string) uint64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
