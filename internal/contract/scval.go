package contract

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/chimpdao/chipauth/internal/codec"
)

// ScVal is a typed contract value: one of the argument/result shapes
// spec.md §6's ABI names (Address, Bytes, u32, u64, string). It is a
// simplified JSON stand-in for a real Soroban ScVal/XDR union — see the
// package doc in rpc.go.
type ScVal struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const (
	typeAddress = "address"
	typeBytes   = "bytes"
	typeU32     = "u32"
	typeU64     = "u64"
	typeString  = "string"
)

// Address builds an Address-typed ScVal from a G... or C... address string.
func Address(addr string) ScVal { return ScVal{Type: typeAddress, Value: addr} }

// Bytes builds a Bytes-typed ScVal, hex-encoding b.
func Bytes(b []byte) ScVal { return ScVal{Type: typeBytes, Value: codec.EncodeHex(b)} }

// U32 builds a u32-typed ScVal.
func U32(v uint32) ScVal { return ScVal{Type: typeU32, Value: strconv.FormatUint(uint64(v), 10)} }

// U64 builds a u64-typed ScVal.
func U64(v uint64) ScVal { return ScVal{Type: typeU64, Value: strconv.FormatUint(v, 10)} }

// String builds a string-typed ScVal.
func String(s string) ScVal { return ScVal{Type: typeString, Value: s} }

// AsBytes decodes a Bytes-typed ScVal back to raw bytes.
func (v ScVal) AsBytes() ([]byte, error) {
	if v.Type != typeBytes {
		return nil, fmt.Errorf("contract: ScVal is %q, not bytes", v.Type)
	}
	return codec.DecodeHex(v.Value)
}

// AsU32 decodes a u32-typed ScVal.
func (v ScVal) AsU32() (uint32, error) {
	if v.Type != typeU32 {
		return 0, fmt.Errorf("contract: ScVal is %q, not u32", v.Type)
	}
	n, err := strconv.ParseUint(v.Value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("contract: malformed u32 value %q: %w", v.Value, err)
	}
	return uint32(n), nil
}

// AsAddress decodes an Address-typed ScVal. Per the Open Questions decision
// in SPEC_FULL.md, a classic G... account address is returned verbatim; a
// contract address is returned as its opaque base64 form.
func (v ScVal) AsAddress() (string, error) {
	if v.Type != typeAddress {
		return "", fmt.Errorf("contract: ScVal is %q, not address", v.Type)
	}
	if len(v.Value) > 0 && v.Value[0] == 'G' {
		return v.Value, nil
	}
	return base64.StdEncoding.EncodeToString([]byte(v.Value)), nil
}

// AsString decodes a string-typed ScVal.
func (v ScVal) AsString() (string, error) {
	if v.Type != typeString {
		return "", fmt.Errorf("contract: ScVal is %q, not string", v.Type)
	}
	return v.Value, nil
}
