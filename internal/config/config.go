// Package config resolves the Dealer's tunables from the environment, via
// viper's AutomaticEnv binding. There is no config file: every setting here
// has a fixed default and an env var override, matching spec.md's CLI
// surface, which takes exactly one positional argument and nothing else.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	keyPoolSize               = "pool_size"
	keyQueueCapacity          = "queue_capacity"
	keyMetricsAddr            = "metrics_addr"
	keyDedupeResendResponses  = "dedupe_resend_responses"
	keyWorkerCrashDenominator = "worker_crash_denominator"
	keyWorkerBin              = "worker_bin"
)

// Config holds the Dealer's runtime tunables.
type Config struct {
	// PoolSize is the fixed number of sibling worker processes kept alive.
	PoolSize int
	// QueueCapacity bounds each of the three queues (request, response, ack).
	QueueCapacity int
	// MetricsAddr, if non-empty, is the listen address for the Prometheus
	// metrics and health endpoint. Empty disables it.
	MetricsAddr string
	// DedupeResendResponses, when true, suppresses a second JobResponse for
	// a job that was resent and then answered twice — see SPEC_FULL.md open
	// question #1. Default false preserves spec.md's documented, lossy
	// at-least-once behavior.
	DedupeResendResponses bool
	// WorkerCrashDenominator configures cmd/worker's optional simulated
	// crash: a worker process exits uncleanly with probability 1/N. Zero
	// disables simulated crashes.
	WorkerCrashDenominator int
	// WorkerBin is the path to the worker executable the Dealer forks.
	// Empty means "worker", resolved via the process's PATH.
	WorkerBin string
}

// Load reads the Dealer's configuration from the environment. Every key is
// prefixed DEALER_, e.g. DEALER_POOL_SIZE.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("dealer")
	v.AutomaticEnv()

	v.SetDefault(keyPoolSize, 4)
	v.SetDefault(keyQueueCapacity, 10)
	v.SetDefault(keyMetricsAddr, "")
	v.SetDefault(keyDedupeResendResponses, false)
	v.SetDefault(keyWorkerCrashDenominator, 0)
	v.SetDefault(keyWorkerBin, "worker")

	cfg := Config{
		PoolSize:               v.GetInt(keyPoolSize),
		QueueCapacity:          v.GetInt(keyQueueCapacity),
		MetricsAddr:            v.GetString(keyMetricsAddr),
		DedupeResendResponses:  v.GetBool(keyDedupeResendResponses),
		WorkerCrashDenominator: v.GetInt(keyWorkerCrashDenominator),
		WorkerBin:              v.GetString(keyWorkerBin),
	}

	if cfg.PoolSize < 1 {
		return Config{}, fmt.Errorf("config: DEALER_POOL_SIZE must be >= 1, got %d", cfg.PoolSize)
	}
	if cfg.QueueCapacity < 1 {
		return Config{}, fmt.Errorf("config: DEALER_QUEUE_CAPACITY must be >= 1, got %d", cfg.QueueCapacity)
	}

	return cfg, nil
}
