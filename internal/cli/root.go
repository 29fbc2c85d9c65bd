package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wemix/chainwait/internal/config"
	"github.com/wemix/chainwait/pkg/logger"
)

// app carries the state every subcommand shares once the config is loaded
type app struct {
	cfg *config.Config
	log *logger.Logger
}

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"rpc-address":     "rpc_address",
	"request-timeout": "request_timeout",
	"poll-interval":   "poll_interval",
	"timeout":         "wait_timeout",
	"disable-logs":    "disable_logs",
	"color-logs":      "color_logs",
	"log-time-format": "timeformat_logs",
	"metrics":         "metrics_enabled",
	"metrics-port":    "metrics_port",
	"metrics-path":    "metrics_path",
}

// NewRootCommand creates the root command for chainwait
func NewRootCommand() *cobra.Command {
	v := viper.New()
	a := &app{}
	var configFile string

	cmd := &cobra.Command{
		Use:   "chainwait",
		Short: "Pace bridge orchestration against a Cosmos node",
		Long: `chainwait blocks until a Tendermint-based chain reaches a condition:
the next block being committed, or the node answering queries again.
It exits 0 once the condition holds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.ColorLogs, cfg.DisableLogs, cfg.TimeFormatLogs)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			a.cfg = cfg
			a.log = log
			return nil
		},
	}

	defaults := config.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (toml, yaml or json)")
	flags.String("rpc-address", defaults.RPCAddress, "Tendermint RPC address of the node")
	flags.Duration("request-timeout", defaults.RequestTimeout, "Timeout of a single RPC request")
	flags.Duration("poll-interval", defaults.PollInterval, "Delay between polls")
	flags.Duration("timeout", defaults.WaitTimeout, "Give up waiting after this long (0 waits forever)")
	flags.Bool("disable-logs", defaults.DisableLogs, "Disable logging")
	flags.Bool("color-logs", defaults.ColorLogs, "Colorize log output")
	flags.String("log-time-format", defaults.TimeFormatLogs, "Log time format (kitchen, rfc3339, rfc3339nano, iso8601)")
	flags.Bool("metrics", defaults.MetricsEnabled, "Expose Prometheus metrics while waiting")
	flags.Int("metrics-port", defaults.MetricsPort, "Port of the metrics endpoint")
	flags.String("metrics-path", defaults.MetricsPath, "Path of the metrics endpoint")

	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(NewBlockCommand(a))
	cmd.AddCommand(NewOnlineCommand(a))
	cmd.AddCommand(NewHeightCommand(a))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}
