package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wemix/chainwait/internal/chain"
	"github.com/wemix/chainwait/internal/height"
	"github.com/wemix/chainwait/internal/metrics"
)

// NewBlockCommand creates the command waiting for the next block
func NewBlockCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "block",
		Short: "Wait until the chain commits a new block",
		Long: `Record the node's current height and wait until it reports a different one.
A failed query ends the wait with an error; it is never retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWait(cmd.Context(), height.WaiterNextBlock, (*height.Waiter).WaitForNextBlock)
		},
	}
}

// NewOnlineCommand creates the command waiting for the node to be reachable
func NewOnlineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "Wait until the node answers queries",
		Long:  `Query the node until a query succeeds, retrying every failure.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWait(cmd.Context(), height.WaiterOnline, (*height.Waiter).WaitForOnline)
		},
	}
}

// NewHeightCommand creates the command printing the current last commit height
func NewHeightCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "height",
		Short: "Print the node's current last commit height",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()

			block, err := chain.NewClient(a.cfg, a.log).LatestBlock(ctx)
			if err != nil {
				return fmt.Errorf("failed to query latest block: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), block.Height())
			return nil
		},
	}
}

// runWait runs one waiter against the configured node, honouring the wait
// timeout and termination signals, and serving metrics if enabled.
func (a *app) runWait(parent context.Context, name string, wait func(*height.Waiter, context.Context) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.WaitTimeout)
		defer cancel()
	}

	collector := metrics.NewCollector()
	if a.cfg.MetricsEnabled {
		exporter := metrics.NewExporter(collector, a.cfg.MetricsPort, a.cfg.MetricsPath, a.log)
		if err := exporter.Start(); err != nil {
			return fmt.Errorf("failed to start metrics exporter: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = exporter.Stop(shutdownCtx)
		}()
	}

	client := chain.NewClient(a.cfg, a.log)
	waiter := height.NewWaiter(client, a.cfg.PollInterval, a.log, height.WithRecorder(collector))

	a.log.Info("waiting",
		zap.String("waiter", name),
		zap.String("rpc", client.URL()),
		zap.Duration("poll_interval", a.cfg.PollInterval),
		zap.Duration("timeout", a.cfg.WaitTimeout))

	err := wait(waiter, ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, height.ErrQueryFailed):
		return fmt.Errorf("timed out after %v waiting for %s: %w", a.cfg.WaitTimeout, name, err)
	default:
		return fmt.Errorf("wait for %s: %w", name, err)
	}
}
