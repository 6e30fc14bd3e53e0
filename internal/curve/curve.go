// Package curve implements secp256k1 low-S normalization and public-key
// recovery, matching the exact curve-order constants the on-chain verifier
// uses so host-side and contract-side recovery agree bit-for-bit.
package curve

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/chimpdao/chipauth/internal/codec"
)

// N is the secp256k1 group order, big-endian.
var N = mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141")

// HalfN is N/2 (rounded down), big-endian.
var HalfN = mustHex("7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF5D576E7357A4501DDFE92F46681B20A0")

func mustHex(s string) []byte {
	b, err := codec.DecodeHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// NormalizeS returns the low-S form of s: if s > n/2, it returns n - s,
// otherwise s unchanged. s must be exactly 32 bytes.
func NormalizeS(s []byte) ([]byte, error) {
	if len(s) != 32 {
		return nil, fmt.Errorf("curve: s must be 32 bytes, got %d", len(s))
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(s); overflow {
		return nil, fmt.Errorf("curve: s is not a valid scalar mod n")
	}
	if scalar.IsOverHalfOrder() {
		scalar.Negate()
	}
	out := make([]byte, 32)
	scalar.PutBytesUnchecked(out)
	return out, nil
}

// Recover performs ECDSA public-key recovery on secp256k1 for recovery id
// rid in {0,1,2,3}. It returns (nil, false) on degenerate input
// (out-of-range r/s, point at infinity) rather than an error, matching the
// "Option<PubKey65>" shape the spec describes.
func Recover(msgHash, r, s []byte, rid uint8) (pubKey65 []byte, ok bool) {
	if len(msgHash) != 32 || len(r) != 32 || len(s) != 32 || rid > 3 {
		return nil, false
	}

	// btcec's compact-signature recovery expects [recovery-header || R || S]
	// where the header folds in the recovery id as 27+rid (uncompressed-key
	// convention); this is a different convention from the raw 0..3 rid
	// carried on-chain, so the mapping happens only here, at the single
	// point that calls into the recovery primitive.
	compact := make([]byte, 65)
	compact[0] = 27 + rid
	copy(compact[1:33], r)
	copy(compact[33:65], s)

	pub, _, err := ecdsa.RecoverCompact(compact, msgHash)
	if err != nil {
		return nil, false
	}
	return pub.SerializeUncompressed(), true
}

// ValidateUncompressed checks that b is a well-formed 65-byte uncompressed
// secp256k1 public key (0x04 || X || Y) on the curve.
func ValidateUncompressed(b []byte) error {
	if len(b) != 65 {
		return fmt.Errorf("curve: uncompressed public key must be 65 bytes, got %d", len(b))
	}
	if b[0] != 0x04 {
		return fmt.Errorf("curve: uncompressed public key must start with 0x04, got 0x%02x", b[0])
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return fmt.Errorf("curve: point is not on secp256k1: %w", err)
	}
	return nil
}
