package contract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/submitter"
)

// Invocation is a single contract-call request: method name and ordered,
// typed arguments, per spec.md §6's ABI tables.
type Invocation struct {
	ContractID string
	Method     string
	Args       []ScVal
}

// envelope is the simplified stand-in for an unsigned/assembled transaction
// envelope (see rpc.go's package doc). It carries everything
// simulate/assemble/sign/submit need: the source account, sequence number,
// the invocation, and — once assembled — the simulated resource footprint.
type envelope struct {
	Source     string  `json:"source"`
	Sequence   uint64  `json:"sequence"`
	ContractID string  `json:"contract_id"`
	Method     string  `json:"method"`
	Args       []ScVal `json:"args"`
	Footprint  string  `json:"footprint,omitempty"`
	MinFee     string  `json:"min_fee,omitempty"`
}

func (e envelope) encode() string {
	raw, _ := json.Marshal(e)
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeEnvelope(s string) (envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return envelope{}, fmt.Errorf("contract: malformed envelope encoding: %w", err)
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return envelope{}, fmt.Errorf("contract: malformed envelope: %w", err)
	}
	return e, nil
}

// simResult mirrors simulateTransaction's response shape. ErrorCode is the
// numeric contract error code Soroban surfaces in a failed simulation's
// diagnostic events, when the contract raised a typed error rather than
// panicking or trapping.
type simResult struct {
	TransactionData string  `json:"transactionData"`
	MinResourceFee  string  `json:"minResourceFee"`
	Result          *ScVal  `json:"result,omitempty"`
	Error           *string `json:"error,omitempty"`
	ErrorCode       int     `json:"errorCode,omitempty"`
}

// errKeyNotSeenMarker is the contract error text spec.md §4.9 calls "key
// not seen" — get_nonce reports it for any public key the contract has
// never recorded a nonce for.
const errKeyNotSeenMarker = "key not seen"

// simulate runs simulateTransaction for inv against account/sequence and
// returns the built envelope plus the raw simResult (needed by Invoke to
// assemble the real submission).
func (c *Client) simulate(ctx context.Context, account string, sequence uint64, inv Invocation) (envelope, simResult, error) {
	env := envelope{Source: account, Sequence: sequence, ContractID: inv.ContractID, Method: inv.Method, Args: inv.Args}

	var sim simResult
	err := c.callWithRetry(ctx, "simulateTransaction", []interface{}{env.encode()}, &sim)
	if err != nil {
		return envelope{}, simResult{}, wrapRPCErr(chiperr.ContractSimulation, "simulateTransaction failed", err)
	}
	if sim.Error != nil {
		return envelope{}, simResult{}, chiperr.New(chiperr.ContractSimulation, *sim.Error).WithCode(sim.ErrorCode)
	}
	return env, sim, nil
}

// ReadOnlyCall simulates inv and decodes its result without
// assemble/sign/submit, per spec.md §4.11's shared read-only path (used by
// the nonce coordinator and owner_of/token_uri lookups).
func (c *Client) ReadOnlyCall(ctx context.Context, account string, sequence uint64, inv Invocation) (ScVal, error) {
	_, sim, err := c.simulate(ctx, account, sequence, inv)
	if err != nil {
		return ScVal{}, err
	}
	if sim.Result == nil {
		return ScVal{}, chiperr.New(chiperr.ContractSimulation, "simulateTransaction returned no result")
	}
	return *sim.Result, nil
}

// OwnerOf reads owner_of(token_id) via the shared read-only path, per
// spec.md §6's ABI table.
func (c *Client) OwnerOf(ctx context.Context, account string, sequence uint64, contractID string, tokenID uint64) (string, error) {
	inv := Invocation{ContractID: contractID, Method: "owner_of", Args: []ScVal{U64(tokenID)}}
	v, err := c.ReadOnlyCall(ctx, account, sequence, inv)
	if err != nil {
		return "", err
	}
	return v.AsAddress()
}

// TokenURI reads token_uri(token_id) via the shared read-only path, per
// spec.md §6's ABI table.
func (c *Client) TokenURI(ctx context.Context, account string, sequence uint64, contractID string, tokenID uint64) (string, error) {
	inv := Invocation{ContractID: contractID, Method: "token_uri", Args: []ScVal{U64(tokenID)}}
	v, err := c.ReadOnlyCall(ctx, account, sequence, inv)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// IsKeyNotSeen reports whether err is the contract's "key not seen" get_nonce
// signal (spec.md §4.9), as opposed to any other simulation failure.
func IsKeyNotSeen(err error) bool {
	if err == nil {
		return false
	}
	if !chiperr.OfKind(err, chiperr.ContractSimulation) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), errKeyNotSeenMarker)
}

// sendResult mirrors sendTransaction's response shape.
type sendResult struct {
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// Status values getTransaction reports, per spec.md §4.11's polling policy.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// txStatusResult mirrors getTransaction's response shape. ErrorCode carries
// the same contract-raised error code as simResult, when a FAILED status
// originated from a typed contract error rather than a host/network fault.
type txStatusResult struct {
	Status    string  `json:"status"`
	ResultXDR string  `json:"resultXdr,omitempty"`
	Error     *string `json:"error,omitempty"`
	ErrorCode int     `json:"errorCode,omitempty"`
}

// InvokeResult is what a successful write call hands back to the
// orchestrator.
type InvokeResult struct {
	TxHash    string
	ResultXDR string
	Result    ScVal
}

// Invoke runs the full build/simulate/assemble/sign/submit/poll pipeline
// spec.md §4.11 describes for a write call (mint/claim/transfer).
func (c *Client) Invoke(ctx context.Context, account string, sequence uint64, inv Invocation, signer submitter.Signer) (InvokeResult, error) {
	env, sim, err := c.simulate(ctx, account, sequence, inv)
	if err != nil {
		return InvokeResult{}, err
	}

	assembled := env
	assembled.Footprint = sim.TransactionData
	assembled.MinFee = sim.MinResourceFee

	signedXDR, err := signer.SignTransaction(ctx, assembled.encode())
	if err != nil {
		return InvokeResult{}, chiperr.Wrap(chiperr.ContractExecution, "submitter signing failed", err)
	}

	var sent sendResult
	if err := c.callWithRetry(ctx, "sendTransaction", []interface{}{signedXDR}, &sent); err != nil {
		return InvokeResult{}, wrapRPCErr(chiperr.ContractExecution, "sendTransaction failed", err)
	}

	return c.poll(ctx, sent.Hash)
}

// poll implements spec.md §4.11's bounded polling policy: fixed interval,
// bounded attempts, exit on SUCCESS/FAILED, anything else is retried.
// Exhausting attempts without a terminal status surfaces as Timeout.
func (c *Client) poll(ctx context.Context, txHash string) (InvokeResult, error) {
	for attempt := 0; attempt < c.cfg.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return InvokeResult{}, chiperr.Wrap(chiperr.Timeout, "poll cancelled", ctx.Err())
			case <-timeAfter(c.cfg.PollInterval):
			}
		}

		var status txStatusResult
		if err := c.callWithRetry(ctx, "getTransaction", []interface{}{txHash}, &status); err != nil {
			return InvokeResult{}, wrapRPCErr(chiperr.ContractExecution, "getTransaction failed", err)
		}

		switch Status(status.Status) {
		case StatusSuccess:
			res := InvokeResult{TxHash: txHash, ResultXDR: status.ResultXDR}
			return res, nil
		case StatusFailed:
			diag := "transaction failed"
			if status.Error != nil {
				diag = *status.Error
			}
			if strings.Contains(strings.ToLower(diag), "nonce") {
				return InvokeResult{}, chiperr.New(chiperr.ReplayNonce, diag).WithCode(status.ErrorCode)
			}
			return InvokeResult{}, chiperr.New(chiperr.ContractExecution, diag).WithCode(status.ErrorCode)
		default:
			continue
		}
	}
	return InvokeResult{}, chiperr.New(chiperr.Timeout, fmt.Sprintf("transaction %s did not reach a terminal status after %d attempts", txHash, c.cfg.PollAttempts))
}
