package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CHAINWAIT_RPC_ADDRESS", "node.example:26657")
	t.Setenv("CHAINWAIT_POLL_INTERVAL", "2s")
	t.Setenv("CHAINWAIT_WAIT_TIMEOUT", "1m")
	t.Setenv("CHAINWAIT_METRICS_ENABLED", "true")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "node.example:26657", cfg.RPCAddress)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.WaitTimeout)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainwait.toml")
	content := `
rpc_address = "http://10.0.0.1:26657"
poll_interval = "500ms"
request_timeout = "3s"
metrics_port = 9191
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.1:26657", cfg.RPCAddress)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 9191, cfg.MetricsPort)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainwait.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc_address: from-file:26657\n"), 0o644))
	t.Setenv("CHAINWAIT_RPC_ADDRESS", "from-env:26657")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-env:26657", cfg.RPCAddress)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CHAINWAIT_POLL_INTERVAL", "1ms")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
