// Package submitter defines the boundary to the submitter wallet: the
// account that pays for and authorizes the Soroban transaction envelope
// wrapping a chip-authenticated mint/claim/transfer call. spec.md §1/§3
// place the actual OS-keychain-backed signer out of scope; this package
// only defines the interface internal/contract calls against, plus an
// in-memory reference implementation for tests.
package submitter

import "context"

// Signer authorizes and signs a built transaction envelope before
// submission. The real implementation is external (OS keychain / hardware
// wallet); only its shape is specified here.
type Signer interface {
	// SignTransaction signs the base64 XDR transaction envelope txXDR and
	// returns the signed envelope in the same encoding.
	SignTransaction(ctx context.Context, txXDR string) (signedXDR string, err error)

	// Address returns the submitter's account address (a Stellar/Soroban
	// G... address). internal/contract takes the source account as its own
	// argument and does not call Address.
	Address() string
}

// MemorySigner is an in-memory reference Signer for tests. It does not
// perform real cryptographic signing: it deterministically tags the input
// envelope so callers can assert a sign step occurred.
type MemorySigner struct {
	address string
}

// NewMemorySigner returns a MemorySigner that reports addr as its account.
func NewMemorySigner(addr string) *MemorySigner {
	return &MemorySigner{address: addr}
}

// SignTransaction returns txXDR with a fixed suffix marker appended,
// standing in for envelope signing in tests that only need to assert the
// pipeline called through to a signer.
func (m *MemorySigner) SignTransaction(_ context.Context, txXDR string) (string, error) {
	return txXDR + ".signed", nil
}

// Address returns the configured submitter address.
func (m *MemorySigner) Address() string {
	return m.address
}
