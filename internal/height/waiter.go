package height

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/wemix/chainwait/pkg/logger"
)

const (
	// DefaultPollInterval is the fixed delay between consecutive polls
	DefaultPollInterval = 1 * time.Second

	// progressLogInterval throttles "still waiting" log lines
	progressLogInterval = 10 * time.Second
)

// Waiter names used in logs and metrics labels
const (
	WaiterNextBlock = "next_block"
	WaiterOnline    = "online"
)

// Wait results reported to the Recorder
const (
	ResultSuccess     = "success"
	ResultQueryFailed = "query_failed"
	ResultCancelled   = "cancelled"
	ResultTimeout     = "timeout"
)

// ErrQueryFailed is wrapped by WaitForNextBlock when a chain query fails.
// The underlying query error is wrapped as well.
var ErrQueryFailed = errors.New("chain query failed")

// Waiter paces callers against a chain node by polling its latest block.
//
// A Waiter holds no per-call state, so one instance may serve any number of
// concurrent calls. Polls within a single call are strictly sequential.
type Waiter struct {
	client   BlockQuerier
	interval time.Duration
	clock    clockwork.Clock
	logger   *logger.Logger
	recorder Recorder
}

// Option configures a Waiter
type Option func(*Waiter)

// WithClock replaces the real clock, e.g. with a clockwork.FakeClock in tests
func WithClock(clock clockwork.Clock) Option {
	return func(w *Waiter) {
		w.clock = clock
	}
}

// WithRecorder reports every poll and finished wait to r
func WithRecorder(r Recorder) Option {
	return func(w *Waiter) {
		w.recorder = r
	}
}

// NewWaiter creates a Waiter polling client every interval (use 0 for default).
func NewWaiter(client BlockQuerier, interval time.Duration, log *logger.Logger, opts ...Option) *Waiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.NewTestLogger()
	}

	w := &Waiter{
		client:   client,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   log.Named("height"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WaitForNextBlock blocks until the node reports a height different from the
// one observed on entry.
//
// Any height change ends the wait, including a decrease. A failed query is
// never retried: the call returns an error wrapping ErrQueryFailed. If the
// chain never advances the call only returns once ctx is done.
func (w *Waiter) WaitForNextBlock(ctx context.Context) (err error) {
	start := w.clock.Now()
	defer func() { w.observeWait(WaiterNextBlock, start, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}
	baseline, err := w.poll(ctx, WaiterNextBlock)
	if err != nil {
		return w.queryFailed(ctx, err, 1)
	}

	log := w.logger.With(zap.String("waiter", WaiterNextBlock), zap.Uint64("baseline", baseline))
	log.Debug("waiting for next block")
	lastProgress := start

	for polls := 2; ; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		current, err := w.poll(ctx, WaiterNextBlock)
		if err != nil {
			return w.queryFailed(ctx, err, polls)
		}

		if current != baseline {
			log.Info("chain advanced",
				zap.Uint64("height", current),
				zap.Int("polls", polls),
				zap.Duration("elapsed", w.clock.Now().Sub(start)))
			return nil
		}

		if w.clock.Now().Sub(lastProgress) >= progressLogInterval {
			log.Info("still waiting for next block", zap.Int("polls", polls))
			lastProgress = w.clock.Now()
		}

		if err := w.sleep(ctx); err != nil {
			return err
		}
	}
}

// WaitForOnline blocks until a query against the node succeeds.
//
// Failures are the condition being waited out: every one is retried after the
// poll interval and none is returned. The block content is discarded. Only a
// done ctx ends the wait early.
func (w *Waiter) WaitForOnline(ctx context.Context) (err error) {
	start := w.clock.Now()
	defer func() { w.observeWait(WaiterOnline, start, err) }()

	log := w.logger.With(zap.String("waiter", WaiterOnline))
	lastProgress := start

	for polls := 1; ; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, qerr := w.poll(ctx, WaiterOnline)
		if qerr == nil {
			if polls > 1 {
				log.Info("node is online",
					zap.Int("polls", polls),
					zap.Duration("elapsed", w.clock.Now().Sub(start)))
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case polls == 1:
			log.Warn("node unreachable, waiting for it to come online",
				zap.Error(qerr),
				zap.Duration("retry_interval", w.interval))
		case w.clock.Now().Sub(lastProgress) >= progressLogInterval:
			log.Info("still waiting for node", zap.Int("polls", polls), zap.Error(qerr))
			lastProgress = w.clock.Now()
		default:
			log.Debug("node still unreachable", zap.Int("polls", polls), zap.Error(qerr))
		}

		if err := w.sleep(ctx); err != nil {
			return err
		}
	}
}

// poll issues one latest-block query and returns its last commit height
func (w *Waiter) poll(ctx context.Context, waiter string) (uint64, error) {
	block, err := w.client.LatestBlock(ctx)
	if err == nil && block == nil {
		err = errors.New("node returned no block")
	}
	if err != nil {
		w.observePoll(waiter, false, 0)
		return 0, err
	}

	h := block.Height()
	w.observePoll(waiter, true, h)
	return h, nil
}

// sleep parks the calling goroutine for one poll interval or until ctx is done
func (w *Waiter) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.clock.After(w.interval):
		return nil
	}
}

// queryFailed builds the terminal error of WaitForNextBlock.
// A query aborted by ctx reports the context error instead.
func (w *Waiter) queryFailed(ctx context.Context, err error, poll int) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	w.logger.Error("chain query failed while waiting for next block",
		zap.Int("poll", poll),
		zap.Error(err))
	return fmt.Errorf("%w on poll %d: %w", ErrQueryFailed, poll, err)
}

func (w *Waiter) observePoll(waiter string, ok bool, height uint64) {
	if w.recorder != nil {
		w.recorder.ObservePoll(waiter, ok, height)
	}
}

func (w *Waiter) observeWait(waiter string, start time.Time, err error) {
	if w.recorder != nil {
		w.recorder.ObserveWait(waiter, resultOf(err), w.clock.Now().Sub(start))
	}
}

// resultOf classifies a waiter's return value for the Recorder
func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrQueryFailed):
		return ResultQueryFailed
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	default:
		return ResultCancelled
	}
}

// WaitForNextBlock waits for the chain to advance using the default poll interval
func WaitForNextBlock(ctx context.Context, client BlockQuerier) error {
	return NewWaiter(client, DefaultPollInterval, nil).WaitForNextBlock(ctx)
}

// WaitForOnline waits for the node to answer using the default poll interval
func WaitForOnline(ctx context.Context, client BlockQuerier) error {
	return NewWaiter(client, DefaultPollInterval, nil).WaitForOnline(ctx)
}
