// Package orchestrator is the Operation Orchestrator (spec.md §4.10): the
// per-operation (mint/claim/transfer) pipeline that binds user inputs,
// drives the reader session and chip command state machine, shapes the
// resulting signature, resolves its recovery id, and hands the assembled
// call off to the contract invoker.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chimpdao/chipauth/internal/chip"
	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/contract"
	"github.com/chimpdao/chipauth/internal/curve"
	"github.com/chimpdao/chipauth/internal/nonce"
	"github.com/chimpdao/chipauth/internal/recovery"
	"github.com/chimpdao/chipauth/internal/sep53"
	"github.com/chimpdao/chipauth/internal/session"
	"github.com/chimpdao/chipauth/internal/submitter"
)

// KeyIndex is the chip key slot every operation authorizes against. The
// chip family this targets provisions a single application key.
const KeyIndex byte = 0

// Config binds the cross-cutting values every operation needs: the
// network/contract identity and the submitter account driving the
// transaction. The account sequence number is passed per operation.
type Config struct {
	ContractID        string
	NetworkPassphrase string
	SubmitterAccount  string
}

// Orchestrator wires C2-C9 (curve, der via chip, sep53, recovery, nonce)
// into C11 (contract.Client), per spec.md §4.10's data flow.
type Orchestrator struct {
	cfg      Config
	sess     *session.Session
	contract *contract.Client
	nonce    *nonce.Coordinator
	signer   submitter.Signer
	log      *slog.Logger
}

// New builds an Orchestrator from its collaborators. A nil logger falls
// back to slog.Default().
func New(cfg Config, sess *session.Session, contractClient *contract.Client, signer submitter.Signer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		sess:     sess,
		contract: contractClient,
		nonce:    nonce.New(contractClient),
		signer:   signer,
		log:      logger,
	}
}

// Result is what every operation hands back on success.
type Result struct {
	TxHash    string
	ResultXDR string
}

// Mint authorizes and submits a mint(to) call.
func (o *Orchestrator) Mint(ctx context.Context, sequence uint64, to string) (Result, error) {
	return o.run(ctx, sequence, sep53.FunctionMint, []string{to}, func(message, sig64, pub65 []byte, rid uint8, n uint32) contract.Invocation {
		return contract.Invocation{
			ContractID: o.cfg.ContractID,
			Method:     "mint",
			Args: []contract.ScVal{
				contract.Address(to),
				contract.Bytes(message),
				contract.Bytes(sig64),
				contract.U32(uint32(rid)),
				contract.Bytes(pub65),
				contract.U32(n),
			},
		}
	})
}

// Claim authorizes and submits a claim(claimant) call.
func (o *Orchestrator) Claim(ctx context.Context, sequence uint64, claimant string) (Result, error) {
	return o.run(ctx, sequence, sep53.FunctionClaim, []string{claimant}, func(message, sig64, pub65 []byte, rid uint8, n uint32) contract.Invocation {
		return contract.Invocation{
			ContractID: o.cfg.ContractID,
			Method:     "claim",
			Args: []contract.ScVal{
				contract.Address(claimant),
				contract.Bytes(message),
				contract.Bytes(sig64),
				contract.U32(uint32(rid)),
				contract.Bytes(pub65),
				contract.U32(n),
			},
		}
	})
}

// Transfer authorizes and submits a transfer(from, to, token_id) call.
func (o *Orchestrator) Transfer(ctx context.Context, sequence uint64, from, to string, tokenID uint64) (Result, error) {
	args := []string{from, to, fmt.Sprintf("%d", tokenID)}
	return o.run(ctx, sequence, sep53.FunctionTransfer, args, func(message, sig64, pub65 []byte, rid uint8, n uint32) contract.Invocation {
		return contract.Invocation{
			ContractID: o.cfg.ContractID,
			Method:     "transfer",
			Args: []contract.ScVal{
				contract.Address(from),
				contract.Address(to),
				contract.U64(tokenID),
				contract.Bytes(message),
				contract.Bytes(sig64),
				contract.U32(uint32(rid)),
				contract.Bytes(pub65),
				contract.U32(n),
			},
		}
	})
}

// buildInvocation assembles the final, op-specific argument vector once the
// message and signature are known.
type buildInvocation func(message, sig64, pub65 []byte, rid uint8, nonce uint32) contract.Invocation

// run implements the nine-step common pipeline spec.md §4.10 names. Every
// invocation is tagged with a fresh correlation id so reader-session and
// contract-submission log lines for the same operation can be joined.
func (o *Orchestrator) run(ctx context.Context, sequence uint64, fn sep53.Function, sep53Args []string, build buildInvocation) (Result, error) {
	corrID := uuid.NewString()
	log := o.log.With(slog.String("correlation_id", corrID), slog.String("function", string(fn)))

	// 1. Open reader session.
	log.Info("opening reader session")
	ev, err := o.sess.Begin(ctx)
	if err != nil {
		log.Error("reader session failed to start", slog.Any("error", err))
		return Result{}, err
	}
	switch ev.Kind {
	case session.UserCancelled:
		return Result{}, chiperr.New(chiperr.UserCancelled, "reader session cancelled")
	case session.Timeout:
		return Result{}, chiperr.New(chiperr.Timeout, "reader session timed out waiting for a tag")
	case session.Error:
		log.Error("reader session error", slog.Any("error", ev.Err))
		return Result{}, o.sess.Invalidate(ev.Err)
	}

	handler := chip.NewHandler(ev.Tag)

	if err := handler.SelectApp(ctx); err != nil {
		return Result{}, o.sess.Invalidate(err)
	}

	// 2. Read chip public key.
	info, err := handler.EnsureKey(ctx, KeyIndex)
	if err != nil {
		return Result{}, o.sess.Invalidate(err)
	}
	if err := curve.ValidateUncompressed(info.PublicKey[:]); err != nil {
		return Result{}, o.sess.Invalidate(chiperr.Wrap(chiperr.Validation, "chip public key failed validation", err))
	}

	// 3. Resolve next nonce.
	n, err := o.nonce.NextNonce(ctx, o.cfg.SubmitterAccount, sequence, o.cfg.ContractID, info.PublicKey[:])
	if err != nil {
		return Result{}, err
	}

	// 4. Build SEP-53 message + hash.
	msg, err := sep53.Build(o.cfg.NetworkPassphrase, o.cfg.ContractID, fn, sep53Args, n)
	if err != nil {
		return Result{}, err
	}

	// 5. Request chip signature over the hash.
	_, sig, err := handler.GenerateSignature(ctx, KeyIndex, msg.Hash)
	if err != nil {
		return Result{}, o.sess.Invalidate(err)
	}

	// 6. Normalize s. Enforce sig = r||s, length 64.
	sNorm, err := curve.NormalizeS(sig.S[:])
	if err != nil {
		return Result{}, chiperr.Wrap(chiperr.Curve, "s-normalization failed", err)
	}
	sig64 := append(append([]byte{}, sig.R[:]...), sNorm...)
	if len(sig64) != 64 {
		return Result{}, chiperr.New(chiperr.Curve, fmt.Sprintf("assembled signature is %d bytes, want 64", len(sig64)))
	}

	// 7. Resolve recovery id against the public key read in step 2.
	rid, err := recovery.Resolve(msg.Hash[:], sig.R[:], sNorm, info.PublicKey[:])
	if err != nil {
		return Result{}, err
	}

	// 8. Hand off to the contract invoker.
	inv := build(msg.Bytes, sig64, info.PublicKey[:], rid, n)

	log.Info("submitting contract invocation", slog.Uint64("nonce", uint64(n)), slog.Int("recovery_id", int(rid)))
	invRes, err := o.contract.Invoke(ctx, o.cfg.SubmitterAccount, sequence, inv, o.signer)
	if err != nil {
		log.Error("contract invocation failed", slog.Any("error", err))
		return Result{}, err
	}

	// 9. Publish success.
	log.Info("operation succeeded", slog.String("tx_hash", invRes.TxHash))
	return Result{TxHash: invRes.TxHash, ResultXDR: invRes.ResultXDR}, nil
}
