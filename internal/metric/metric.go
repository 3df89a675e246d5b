// Package metric exposes verification activity as Prometheus metrics.
package metric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/threadalert/internal/harness"
)

const namespace = "threadalert"

// Recorder implements harness.Recorder with Prometheus collectors.
type Recorder struct {
	runs        *prometheus.CounterVec // By state (failed/timed_out/completed) and outcome
	invocations prometheus.Counter
	failures    prometheus.Counter
	unfinished  prometheus.Gauge
	duration    prometheus.Histogram
}

var _ harness.Recorder = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, errors.New("metric: nil registerer")
	}

	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of verification passes by terminal state",
		}, []string{"state", "outcome"}),

		invocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of action invocations that returned",
		}),

		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_failures_total",
			Help:      "Total number of action invocations that returned an error or panicked",
		}),

		unfinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unfinished_invocations",
			Help:      "Invocations still outstanding at the end of the last verification pass",
		}),

		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_duration_seconds",
			Help:      "Time from first submission to the verification decision",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	for _, c := range []prometheus.Collector{r.runs, r.invocations, r.failures, r.unfinished, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// RecordInvocation counts one returned invocation.
func (r *Recorder) RecordInvocation(err error) {
	r.invocations.Inc()
	if err != nil {
		r.failures.Inc()
	}
}

// RecordResult records a finished verification pass.
func (r *Recorder) RecordResult(res *harness.Result) {
	r.runs.WithLabelValues(res.State.String(), res.Outcome()).Inc()
	r.unfinished.Set(float64(res.Remaining))
	r.duration.Observe(res.Duration.Seconds())
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics and /health on addr until ctx is cancelled.
// The listener is bound before Serve returns, so the address is usable
// immediately; the bound address is returned for ":0" callers.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) (string, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && logger != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}()

	if logger != nil {
		logger.Info("metrics server listening", "addr", ln.Addr().String())
	}
	return ln.Addr().String(), done, nil
}
