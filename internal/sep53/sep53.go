// Package sep53 builds the deterministic off-chain-signed authorization
// message the contract reconstructs and verifies, per spec.md §4.4.
package sep53

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/chimpdao/chipauth/internal/codec"
)

// Function is one of the enumerated, fixed, lowercase ASCII function-name
// literals this message format is collision-safe for. Any other value is a
// programmer error, not a runtime input.
type Function string

const (
	FunctionMint     Function = "mint"
	FunctionClaim    Function = "claim"
	FunctionTransfer Function = "transfer"
)

var validFunctions = map[Function]bool{
	FunctionMint:     true,
	FunctionClaim:    true,
	FunctionTransfer: true,
}

// Message is the built octet string and its SHA-256 hash.
type Message struct {
	Bytes []byte
	Hash  [32]byte
}

// Build constructs the SEP-53 message:
//
//	SHA256(network_passphrase) || contract_id(32) || function_name || json(args) || nonce_be32
//
// args must be a flat ordered list of address strings or decimal-string
// integers; it is encoded as a minimal JSON array (no whitespace, no key
// reordering — there are no keys, only array elements) so the contract can
// reconstruct the identical byte string from typed arguments.
func Build(networkPassphrase, contractID string, fn Function, args []string, nonce uint32) (Message, error) {
	if !validFunctions[fn] {
		return Message{}, fmt.Errorf("sep53: unknown function %q", fn)
	}

	netHash := sha256.Sum256([]byte(networkPassphrase))
	if len(netHash) != 32 {
		return Message{}, fmt.Errorf("sep53: network passphrase hash is %d bytes, want 32", len(netHash))
	}

	cid, err := codec.DecodeHex(contractID)
	if err != nil {
		return Message{}, fmt.Errorf("sep53: contract id: %w", err)
	}
	if len(cid) != 32 {
		return Message{}, fmt.Errorf("sep53: contract id is %d bytes, want 32", len(cid))
	}

	js, err := encodeArgs(args)
	if err != nil {
		return Message{}, fmt.Errorf("sep53: %w", err)
	}

	nb := codec.BEUint32ToBytes(nonce)

	msg := make([]byte, 0, 32+32+len(fn)+len(js)+4)
	msg = append(msg, netHash[:]...)
	msg = append(msg, cid...)
	msg = append(msg, []byte(fn)...)
	msg = append(msg, js...)
	msg = append(msg, nb...)

	hash := sha256.Sum256(msg)
	if len(hash) != 32 {
		return Message{}, fmt.Errorf("sep53: message hash is %d bytes, want 32", len(hash))
	}

	return Message{Bytes: msg, Hash: hash}, nil
}

// encodeArgs renders args as the minimal JSON array form: no whitespace,
// string elements only (addresses and decimal-string integers both travel
// as JSON strings, never as JSON numbers, so precision is never at risk).
func encodeArgs(args []string) ([]byte, error) {
	if args == nil {
		args = []string{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding args: %w", err)
	}
	return b, nil
}
