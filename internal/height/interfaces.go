package height

import (
	"context"
	"time"

	"github.com/wemix/chainwait/internal/chain"
)

// BlockQuerier fetches the latest block from a chain node.
// This abstraction allows for different implementations (RPC client, scripted mock, etc.)
//
// Implementations must be safe for concurrent use: a single client is
// shared by every waiter call in the process.
type BlockQuerier interface {
	// LatestBlock returns the most recent block known to the node, or an
	// error if the node cannot be reached or answers with a failure.
	LatestBlock(ctx context.Context) (*chain.Block, error)
}

// Recorder receives poll and wait observations, typically for metrics.
type Recorder interface {
	ObservePoll(waiter string, ok bool, height uint64)
	ObserveWait(waiter string, result string, elapsed time.Duration)
}
