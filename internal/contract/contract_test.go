package contract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/submitter"
)

func newScriptedServer(t *testing.T, byMethod map[string][]json.RawMessage) *httptest.Server {
	counts := map[string]int{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		results := byMethod[req.Method]
		idx := counts[req.Method]
		require.Less(t, idx, len(results), "unexpected extra call to %s", req.Method)
		counts[req.Method]++

		resp := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: results[idx]}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func rawJSON(t *testing.T, v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestInvokeFullPipelineSuccess(t *testing.T) {
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{TransactionData: "footprint-1", MinResourceFee: "100"})},
		"sendTransaction":     {rawJSON(t, sendResult{Hash: "abc123", Status: "PENDING"})},
		"getTransaction": {
			rawJSON(t, txStatusResult{Status: "PENDING"}),
			rawJSON(t, txStatusResult{Status: "SUCCESS", ResultXDR: "result-xdr"}),
		},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL, PollInterval: time.Millisecond, PollAttempts: 10})
	signer := submitter.NewMemorySigner("GSUB")

	inv := Invocation{ContractID: "CID", Method: "mint", Args: []ScVal{Address("GTO")}}
	res, err := c.Invoke(context.Background(), "GSUB", 1, inv, signer)
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.TxHash)
	assert.Equal(t, "result-xdr", res.ResultXDR)
}

func TestInvokePollTimeout(t *testing.T) {
	pending := make([]json.RawMessage, 12)
	for i := range pending {
		pending[i] = rawJSON(t, txStatusResult{Status: "PENDING"})
	}
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{TransactionData: "fp"})},
		"sendTransaction":     {rawJSON(t, sendResult{Hash: "h1"})},
		"getTransaction":      pending,
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL, PollInterval: time.Millisecond, PollAttempts: 10})
	signer := submitter.NewMemorySigner("GSUB")
	inv := Invocation{ContractID: "CID", Method: "mint", Args: []ScVal{Address("GTO")}}

	_, err := c.Invoke(context.Background(), "GSUB", 1, inv, signer)
	require.Error(t, err)
	assert.True(t, chiperr.OfKind(err, chiperr.Timeout))
}

func TestInvokeFailedStatusSurfacesReplayNonce(t *testing.T) {
	errMsg := "nonce already used"
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{TransactionData: "fp"})},
		"sendTransaction":     {rawJSON(t, sendResult{Hash: "h1"})},
		"getTransaction":      {rawJSON(t, txStatusResult{Status: "FAILED", Error: &errMsg, ErrorCode: 3})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL, PollInterval: time.Millisecond})
	signer := submitter.NewMemorySigner("GSUB")
	inv := Invocation{ContractID: "CID", Method: "claim", Args: []ScVal{Address("GC")}}

	_, err := c.Invoke(context.Background(), "GSUB", 1, inv, signer)
	require.Error(t, err)
	assert.True(t, chiperr.OfKind(err, chiperr.ReplayNonce))
	var cErr *chiperr.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 3, cErr.Code)
}

func TestReadOnlyCallSurfacesContractErrorCode(t *testing.T) {
	errMsg := "token does not exist"
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{Error: &errMsg, ErrorCode: 5})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL})
	inv := Invocation{ContractID: "CID", Method: "owner_of", Args: []ScVal{U64(42)}}

	_, err := c.ReadOnlyCall(context.Background(), "GSUB", 1, inv)
	require.Error(t, err)
	var cErr *chiperr.Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 5, cErr.Code)
}

func TestReadOnlyCallKeyNotSeen(t *testing.T) {
	errMsg := "key not seen"
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{Error: &errMsg})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL})
	inv := Invocation{ContractID: "CID", Method: "get_nonce", Args: []ScVal{Bytes(make([]byte, 65))}}

	_, err := c.ReadOnlyCall(context.Background(), "GSUB", 1, inv)
	require.Error(t, err)
	assert.True(t, IsKeyNotSeen(err))
}

func TestReadOnlyCallDecodesResult(t *testing.T) {
	result := U32(7)
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{Result: &result})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL})
	inv := Invocation{ContractID: "CID", Method: "get_nonce", Args: []ScVal{Bytes(make([]byte, 65))}}

	val, err := c.ReadOnlyCall(context.Background(), "GSUB", 1, inv)
	require.NoError(t, err)
	n, err := val.AsU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), n)
}

func TestOwnerOfDecodesAddress(t *testing.T) {
	result := Address("GOWNER")
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{Result: &result})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL})
	owner, err := c.OwnerOf(context.Background(), "GSUB", 1, "CID", 42)
	require.NoError(t, err)
	assert.Equal(t, "GOWNER", owner)
}

func TestTokenURIDecodesString(t *testing.T) {
	result := String("https://example.com/token/42")
	srv := newScriptedServer(t, map[string][]json.RawMessage{
		"simulateTransaction": {rawJSON(t, simResult{Result: &result})},
	})
	defer srv.Close()

	c := New(Config{RPCURL: srv.URL})
	uri, err := c.TokenURI(context.Background(), "GSUB", 1, "CID", 42)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/token/42", uri)
}
