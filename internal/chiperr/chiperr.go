// Package chiperr is the unified error taxonomy for the chip-authorization
// pipeline (spec.md §4.12, §7): every transport, curve, contract, and
// protocol failure is converted into one of these kinds so the CLI can map
// it to a short actionable message plus a long diagnostic.
package chiperr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds named in spec.md §4.12.
type Kind string

const (
	Transport           Kind = "transport"
	ChipProtocol         Kind = "chip_protocol"
	Der                  Kind = "der"
	Curve                Kind = "curve"
	Sep53                Kind = "sep53"
	ContractSimulation   Kind = "contract_simulation"
	ContractExecution    Kind = "contract_execution"
	ReplayNonce          Kind = "replay_nonce"
	RecoveryIDUnmatched  Kind = "recovery_id_unmatched"
	Timeout              Kind = "timeout"
	UserCancelled        Kind = "user_cancelled"
	Validation           Kind = "validation"
)

// Error is the structured, wrapped error every component surfaces. Diag is
// an opaque diagnostic string (may embed a raw status word, RPC error body,
// or contract error code); Code is the contract's own error code when the
// failure originated on-chain and the contract surfaced one.
type Error struct {
	Kind Kind
	Diag string
	Code int // contract error code, 0 if not applicable
	Err  error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (contract code %d)", e.Kind, e.Diag, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Diag)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches against a Kind-tagged sentinel produced by New with a nil Err,
// so callers can write errors.Is(err, chiperr.New(chiperr.Timeout, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, diag string) *Error {
	return &Error{Kind: kind, Diag: diag}
}

// Wrap builds an *Error wrapping err, tagging it with kind and a diagnostic.
// Returns nil if err is nil.
func Wrap(kind Kind, diag string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Diag: diag, Err: err}
}

// WithCode attaches a contract error code to an existing *Error and returns
// it, for chaining at the call site: chiperr.Wrap(...).WithCode(3).
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// OfKind reports whether err is a *Error of the given kind, unwrapping
// standard error chains.
func OfKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Message is the user-facing short/long pair spec.md §7 describes.
type Message struct {
	Short string
	Long  string
}

// ToMessage converts any error into a user-facing message pair. Non-*Error
// values get a generic short message with the error text as the long one.
func ToMessage(err error) Message {
	var e *Error
	if !errors.As(err, &e) {
		return Message{Short: "Something went wrong.", Long: err.Error()}
	}

	switch e.Kind {
	case Transport:
		return Message{Short: "Lost contact with the chip.", Long: e.Error()}
	case ChipProtocol:
		return Message{Short: "The chip rejected the request.", Long: e.Error()}
	case Der, Curve:
		return Message{Short: "The chip's signature could not be parsed.", Long: e.Error()}
	case Sep53:
		return Message{Short: "Could not build the authorization message.", Long: e.Error()}
	case ContractSimulation:
		return Message{Short: "The network could not prepare this transaction.", Long: e.Error()}
	case ContractExecution:
		return Message{Short: "The network rejected this transaction.", Long: e.Error()}
	case ReplayNonce:
		return Message{Short: "This authorization was already used.", Long: e.Error()}
	case RecoveryIDUnmatched:
		return Message{Short: "Signature does not match chip key.", Long: e.Error()}
	case Timeout:
		return Message{Short: "Timed out waiting for a response.", Long: e.Error()}
	case UserCancelled:
		return Message{Short: "Cancelled.", Long: e.Error()}
	default:
		return Message{Short: "Could not complete the request.", Long: e.Error()}
	}
}
