// Package contract is the Contract Invoker (spec.md §4.11): it builds a
// contract-call transaction, simulates it, assembles it with the simulated
// footprint, hands it to a submitter.Signer, submits it, and polls for a
// terminal status. It also serves the read-only path C9 (nonce) and the
// out-of-scope NFT-loader share.
//
// Modeled on the JSON-RPC client in the host ecosystem's opstack signer:
// same request/response envelope shape, same HTTPClient seam for test
// doubles, same RetryableError-tagged retry loop. No Soroban/Stellar SDK
// exists anywhere in the retrieved corpus, so the transaction envelope here
// is a deliberately simplified stand-in (a JSON struct, not real XDR) that
// still carries every field spec.md's ABI requires; see DESIGN.md.
package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chimpdao/chipauth/internal/chiperr"
)

// HTTPClient is the seam test doubles implement instead of *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// timeAfter is a var so poll's wait can be driven by tests without a real
// sleep.
var timeAfter = time.After

// Config configures a Client, mirroring the fields SPEC_FULL.md §4.13 names
// on the top-level Config struct.
type Config struct {
	RPCURL       string
	PollInterval time.Duration
	PollAttempts int
	HTTPClient   HTTPClient
}

// Client is the Soroban-style JSON-RPC client: simulateTransaction,
// sendTransaction, getTransaction. It does not call getLedgerEntries.
type Client struct {
	cfg Config
}

// New builds a Client, filling in spec.md §4.11's 1s poll interval when
// unset and raising PollAttempts to at least 10.
func New(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PollAttempts < 10 {
		cfg.PollAttempts = 10
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg}
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// retryableError marks a transient failure worth retrying, same idiom as
// the host ecosystem's opstack signer.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

func isRetryableRPCCode(code int) bool {
	return code >= -32099 && code <= -32000
}

// call executes one JSON-RPC round trip and unmarshals the result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	reqBody, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return fmt.Errorf("contract: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("contract: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return &retryableError{fmt.Errorf("contract: http request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{fmt.Errorf("contract: read response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return &retryableError{fmt.Errorf("contract: server error %d: %s", resp.StatusCode, body)}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("contract: client error %d: %s", resp.StatusCode, body)
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("contract: unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		if isRetryableRPCCode(rpcResp.Error.Code) {
			return &retryableError{fmt.Errorf("JSON-RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)}
		}
		return fmt.Errorf("JSON-RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("contract: unmarshal result: %w", err)
	}
	return nil
}

// callWithRetry makes up to 3 attempts of call, retrying only on a
// retryableError, with
// exponential backoff starting at 500ms — the same shape as the host
// ecosystem's sign-retry loop, reused here for transient RPC failures.
func (c *Client) callWithRetry(ctx context.Context, method string, params []interface{}, out interface{}) error {
	backoff := 500 * time.Millisecond
	const maxAttempts = 3
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err := c.call(ctx, method, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("contract: %s failed after %d attempts: %w", method, maxAttempts, lastErr)
}

// wrapRPCErr maps a raw call error into the chiperr taxonomy.
func wrapRPCErr(kind chiperr.Kind, diag string, err error) error {
	if err == nil {
		return nil
	}
	return chiperr.Wrap(kind, diag, err)
}
