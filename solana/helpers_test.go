package solana

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

// writeKeygenFile stores key the way solana-keygen does: a json array of byte values.
func writeKeygenFile(t *testing.T, dir, name string, key solana.PrivateKey) string {
	t.Helper()
	values := make([]int, len(key))
	for i, b := range key {
		values[i] = int(b)
	}
	content, err := json.Marshal(values)
	require.NoError(t, err)
	return writeFile(t, dir, name, content)
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeRPC answers json-rpc calls from canned results keyed by method name.
type fakeRPC struct {
	t       *testing.T
	results map[string]interface{}
	errors  map[string]string

	mu    sync.Mutex
	calls []rpcRequest
}

func newFakeRPC(t *testing.T) *fakeRPC {
	return &fakeRPC{t: t, results: map[string]interface{}{}, errors: map[string]string{}}
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	var req rpcRequest
	require.NoError(f.t, json.Unmarshal(body, &req))

	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if msg, ok := f.errors[req.Method]; ok {
		resp["error"] = map[string]interface{}{"code": -32002, "message": msg}
	} else if result, ok := f.results[req.Method]; ok {
		resp["result"] = result
	} else {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
	}

	w.Header().Set("Content-Type", "application/json")
	require.NoError(f.t, json.NewEncoder(w).Encode(resp))
}

func (f *fakeRPC) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeRPC) lastCall(method string) rpcRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i]
		}
	}
	f.t.Fatalf("no %s call recorded", method)
	return rpcRequest{}
}

// newRPCOnlyClient returns a Client without websocket connection, backed by f.
func newRPCOnlyClient(t *testing.T, f *fakeRPC) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return &Client{rpcClient: rpc.New(srv.URL)}
}
