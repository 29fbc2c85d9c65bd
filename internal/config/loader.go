package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CHAINWAIT_RPC_ADDRESS
const EnvPrefix = "CHAINWAIT"

// Load builds a Config from defaults, an optional config file, environment
// variables and any flags already bound to v, in increasing precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("rpc_address", d.RPCAddress)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("wait_timeout", d.WaitTimeout)
	v.SetDefault("disable_logs", d.DisableLogs)
	v.SetDefault("color_logs", d.ColorLogs)
	v.SetDefault("timeformat_logs", d.TimeFormatLogs)
	v.SetDefault("metrics_enabled", d.MetricsEnabled)
	v.SetDefault("metrics_port", d.MetricsPort)
	v.SetDefault("metrics_path", d.MetricsPath)
}
