package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wemix/chainwait/internal/config"
	"github.com/wemix/chainwait/pkg/logger"
)

const blockResult = `{
	"block_id": {"hash": "ABCD"},
	"block": {
		"header": {"chain_id": "peggy-test", "height": "42", "time": "2020-09-01T10:00:00Z"},
		"last_commit": {"height": "41", "round": 0}
	}
}`

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RPCAddress = url
	cfg.RequestTimeout = 2 * time.Second
	return NewClient(cfg, logger.NewTestLogger())
}

// rpcServer answers every request with the given status and body and records the request methods.
func rpcServer(t *testing.T, status int, body string, methods *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && methods != nil {
			*methods = append(*methods, req["method"].(string))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		addr     string
		expected string
	}{
		{"localhost:26657", "http://localhost:26657"},
		{"http://node:26657", "http://node:26657"},
		{"https://node.example", "https://node.example"},
		{"tcp://127.0.0.1:26657", "http://127.0.0.1:26657"},
	}

	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			client := newTestClient(t, tc.addr)
			assert.Equal(t, tc.expected, client.URL())
		})
	}
}

func TestLatestBlock(t *testing.T) {
	var methods []string
	server := rpcServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":`+blockResult+`}`, &methods)
	client := newTestClient(t, server.URL)

	block, err := client.LatestBlock(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"block"}, methods)
	assert.Equal(t, uint64(41), block.Height(), "height comes from the last commit")
	assert.Equal(t, uint64(42), block.Header.Height)
	assert.Equal(t, "peggy-test", block.Header.ChainID)
}

func TestLatestBlock_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		isRPC   bool
	}{
		{
			name:    "rpc error object",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"Internal error","data":"height not available"}}`,
			wantErr: "Internal error",
			isRPC:   true,
		},
		{
			name:    "rpc error with server status",
			status:  http.StatusInternalServerError,
			body:    `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"Internal error"}}`,
			wantErr: "-32603",
			isRPC:   true,
		},
		{
			name:    "non json body with bad status",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: "unexpected HTTP status 502",
		},
		{
			name:    "non json body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: "failed to decode response",
		},
		{
			name:    "missing result",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1}`,
			wantErr: "empty result",
		},
		{
			name:    "null block",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1,"result":{"block_id":{},"block":null}}`,
			wantErr: "no block",
		},
		{
			name:    "malformed height",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1,"result":{"block":{"last_commit":{"height":"abc"}}}}`,
			wantErr: "failed to unmarshal block",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := rpcServer(t, tc.status, tc.body, nil)
			client := newTestClient(t, server.URL)

			block, err := client.LatestBlock(context.Background())
			require.Error(t, err)
			assert.Nil(t, block)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Equal(t, tc.isRPC, errors.Is(err, ErrRPC))
		})
	}
}

func TestLatestBlock_NodeDown(t *testing.T) {
	server := rpcServer(t, http.StatusOK, "{}", nil)
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.LatestBlock(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC request failed")
}

func TestLatestBlock_ContextCancelled(t *testing.T) {
	server := rpcServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":`+blockResult+`}`, nil)
	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LatestBlock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatestBlock_IncrementsRequestID(t *testing.T) {
	var ids []float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		ids = append(ids, req["id"].(float64))
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + blockResult + `}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 3; i++ {
		_, err := client.LatestBlock(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{1, 2, 3}, ids)
}
