package config

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values
const (
	DefaultRPCAddress     = "localhost:26657"
	DefaultRequestTimeout = 10 * time.Second
	DefaultPollInterval   = 1 * time.Second
	DefaultTimeFormatLogs = "kitchen"
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
	MinPollInterval       = 100 * time.Millisecond
)

// Config holds all configuration for chainwait
type Config struct {
	// Node connection
	RPCAddress     string        `mapstructure:"rpc_address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Wait behaviour. A zero WaitTimeout leaves waits unbounded.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`

	// Logging
	DisableLogs    bool   `mapstructure:"disable_logs"`
	ColorLogs      bool   `mapstructure:"color_logs"`
	TimeFormatLogs string `mapstructure:"timeformat_logs"`

	// Metrics
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPort    int    `mapstructure:"metrics_port"`
	MetricsPath    string `mapstructure:"metrics_path"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		RPCAddress:     DefaultRPCAddress,
		RequestTimeout: DefaultRequestTimeout,
		PollInterval:   DefaultPollInterval,
		ColorLogs:      true,
		TimeFormatLogs: DefaultTimeFormatLogs,
		MetricsPort:    DefaultMetricsPort,
		MetricsPath:    DefaultMetricsPath,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("rpc address not set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("poll interval too short (minimum %v)", MinPollInterval)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("wait timeout must not be negative, got %v", c.WaitTimeout)
	}
	if c.MetricsEnabled {
		if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
			return fmt.Errorf("invalid metrics port %d", c.MetricsPort)
		}
		if !strings.HasPrefix(c.MetricsPath, "/") {
			return fmt.Errorf("metrics path must start with '/', got %q", c.MetricsPath)
		}
	}
	return nil
}
