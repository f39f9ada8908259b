package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DEALER_POOL_SIZE",
		"DEALER_QUEUE_CAPACITY",
		"DEALER_METRICS_ADDR",
		"DEALER_DEDUPE_RESEND_RESPONSES",
		"DEALER_WORKER_CRASH_DENOMINATOR",
		"DEALER_WORKER_BIN",
	} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.PoolSize)
	require.Equal(t, 10, cfg.QueueCapacity)
	require.Equal(t, "", cfg.MetricsAddr)
	require.False(t, cfg.DedupeResendResponses)
	require.Equal(t, 0, cfg.WorkerCrashDenominator)
	require.Equal(t, "worker", cfg.WorkerBin)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEALER_POOL_SIZE", "8")
	t.Setenv("DEALER_DEDUPE_RESEND_RESPONSES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8, cfg.PoolSize)
	require.True(t, cfg.DedupeResendResponses)
}

func TestLoad_RejectsNonPositivePoolSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEALER_POOL_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
}
