package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wemix/chainwait/internal/config"
	"github.com/wemix/chainwait/pkg/logger"
)

// ErrRPC is returned when the node answers with a JSON-RPC error object
var ErrRPC = errors.New("rpc error")

// Client queries a Tendermint node over JSON-RPC.
// It is safe for concurrent use.
type Client struct {
	logger     *logger.Logger
	httpClient *http.Client
	rpcURL     string
	nextID     atomic.Uint64
}

// NewClient creates a new chain client for the configured RPC address
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		logger: log.Named("chain"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		rpcURL: normalizeURL(cfg.RPCAddress),
	}
}

// URL returns the endpoint the client sends requests to
func (c *Client) URL() string {
	return c.rpcURL
}

// LatestBlock fetches the most recent block from the node
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	raw, err := c.rpcCall(ctx, "block", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var result ResultBlock
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	if result.Block == nil {
		return nil, fmt.Errorf("node returned no block")
	}

	c.logger.Debug("fetched latest block",
		zap.Uint64("height", result.Block.Header.Height),
		zap.Uint64("last_commit_height", result.Block.LastCommit.Height))

	return result.Block, nil
}

// rpcCall makes an RPC call to the node
func (c *Client) rpcCall(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	reqData, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      c.nextID.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    string `json:"data"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// Tendermint reports some errors with a non-200 status and a JSON-RPC body
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("%w %d: %s %s", ErrRPC, rpcResp.Error.Code, rpcResp.Error.Message, rpcResp.Error.Data)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}
	if len(rpcResp.Result) == 0 {
		return nil, fmt.Errorf("empty result for method %s", method)
	}

	return rpcResp.Result, nil
}

// normalizeURL adds an http scheme to bare host:port addresses
func normalizeURL(addr string) string {
	addr = strings.TrimSpace(addr)
	switch {
	case strings.HasPrefix(addr, "http://"), strings.HasPrefix(addr, "https://"):
		return addr
	case strings.HasPrefix(addr, "tcp://"):
		return "http://" + strings.TrimPrefix(addr, "tcp://")
	default:
		return fmt.Sprintf("http://%s", addr)
	}
}
