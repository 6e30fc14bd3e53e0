// Package nonce is the Nonce Coordinator (spec.md §4.9): it reads the
// contract's current replay nonce for a chip public key and computes the
// next one to use.
package nonce

import (
	"context"

	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/contract"
)

// Coordinator resolves the next nonce to authorize a signature with.
type Coordinator struct {
	client *contract.Client
}

// New wraps a contract.Client in the nonce coordinator.
func New(client *contract.Client) *Coordinator {
	return &Coordinator{client: client}
}

// NextNonce invokes the contract's read-only get_nonce(pubkey) via
// simulation. A "key not seen" contract error means the chip key has never
// authorized an operation; NextNonce returns 0 for it. On success it
// returns stored+1. Any other error propagates.
func (c *Coordinator) NextNonce(ctx context.Context, account string, sequence uint64, contractID string, chipPubKey65 []byte) (uint32, error) {
	if len(chipPubKey65) != 65 {
		return 0, chiperr.New(chiperr.Validation, "chip public key must be 65 bytes")
	}

	inv := contract.Invocation{
		ContractID: contractID,
		Method:     "get_nonce",
		Args:       []contract.ScVal{contract.Bytes(chipPubKey65)},
	}

	result, err := c.client.ReadOnlyCall(ctx, account, sequence, inv)
	if err != nil {
		if contract.IsKeyNotSeen(err) {
			return 0, nil
		}
		return 0, err
	}

	stored, err := result.AsU32()
	if err != nil {
		return 0, chiperr.Wrap(chiperr.ContractSimulation, "get_nonce returned a non-u32 result", err)
	}
	return stored + 1, nil
}
