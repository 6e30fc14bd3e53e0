// Package codec provides hex/byte conversions and constant-time comparisons
// shared by the curve, DER, and SEP-53 layers.
package codec

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DecodeHex accepts a 0x-prefixed or bare hex string and returns its bytes.
// An odd number of nibbles (after stripping an optional prefix) is rejected
// rather than silently left-padded, so a caller's copy/paste error surfaces
// immediately instead of shifting a field element by one nibble.
func DecodeHex(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed)%2 != 0 {
		return nil, fmt.Errorf("codec: odd-length hex string %q", s)
	}
	if trimmed == "" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode("0x" + trimmed)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid hex %q: %w", s, err)
	}
	return b, nil
}

// EncodeHex renders bytes as a 0x-prefixed lowercase hex string.
func EncodeHex(b []byte) string {
	return hexutil.Encode(b)
}

// ConstEq performs a constant-time byte comparison. Both slices must be the
// same length; mismatched lengths are treated as unequal without leaking
// which side was shorter through an early branch.
func ConstEq(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// BEUint32ToBytes renders x as a 4-byte big-endian integer.
func BEUint32ToBytes(x uint32) []byte {
	return []byte{byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x)}
}

// BytesToBEUint32 parses a 4-byte big-endian integer. The input must be
// exactly 4 bytes.
func BytesToBEUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("codec: expected 4 bytes, got %d", len(b))
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// PadLeft32 left-pads b with zero bytes to exactly 32 bytes. b must not be
// longer than 32 bytes.
func PadLeft32(b []byte) ([]byte, error) {
	if len(b) > 32 {
		return nil, fmt.Errorf("codec: value is %d bytes, exceeds 32", len(b))
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out, nil
}
