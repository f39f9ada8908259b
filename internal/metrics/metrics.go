// Package metrics exposes the Dealer's counters and gauges over HTTP, via
// the standard Prometheus client registry. Everything here is observational:
// no code path's correctness depends on a metric being read.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the Dealer updates over its lifetime.
type Metrics struct {
	JobsAdmitted   prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsResent     prometheus.Counter
	WorkerDeaths   prometheus.Counter
	ForkFailures   prometheus.Counter
	PoolSize       prometheus.Gauge
	InFlightJobs   prometheus.Gauge
	registry       *prometheus.Registry
	srv            *http.Server
}

// New registers a fresh set of instruments against a private registry, so
// running more than one Dealer in a test process never collides on the
// default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		JobsAdmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "dealer_jobs_admitted_total",
			Help: "Jobs received from the producer and enqueued to the request queue.",
		}),
		JobsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "dealer_jobs_completed_total",
			Help: "Job responses received from workers.",
		}),
		JobsResent: f.NewCounter(prometheus.CounterOpts{
			Name: "dealer_jobs_resent_total",
			Help: "Jobs resent to a replacement worker after their assignee died.",
		}),
		WorkerDeaths: f.NewCounter(prometheus.CounterOpts{
			Name: "dealer_worker_deaths_total",
			Help: "Worker process exits observed by the signal bridge.",
		}),
		ForkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "dealer_fork_failures_total",
			Help: "Failed attempts to spawn a replacement worker.",
		}),
		PoolSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "dealer_pool_size",
			Help: "Current number of live worker processes.",
		}),
		InFlightJobs: f.NewGauge(prometheus.GaugeOpts{
			Name: "dealer_in_flight_jobs",
			Help: "Jobs admitted from the producer and not yet counted as completed.",
		}),
		registry: reg,
	}
}

// Serve starts the metrics/health HTTP listener in the background. Call
// Shutdown to stop it. A zero-value addr is not valid; callers should skip
// Serve entirely when metrics are disabled.
func (x *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(x.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	x.srv = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- x.srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return nil
	}
}

// Shutdown stops the metrics listener, if one was started.
func (x *Metrics) Shutdown(ctx context.Context) error {
	if x.srv == nil {
		return nil
	}
	return x.srv.Shutdown(ctx)
}
