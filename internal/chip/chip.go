// Package chip drives the chip command state machine (spec.md §4.6):
// SELECT_APP -> GET_KEY_INFO (-> GENERATE_KEY*) -> GENERATE_SIGNATURE. It
// owns APDU shaping for this chip family; the transport below it is pure
// I/O (internal/apdu), and recovery-id resolution above it is out of scope
// for this package entirely (internal/recovery).
package chip

import (
	"context"
	"fmt"

	"github.com/chimpdao/chipauth/internal/apdu"
	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/der"
)

// AID is the fixed 13-byte application identifier this chip family
// registers its applet under.
var AID = [13]byte{0xA0, 0x00, 0x00, 0x08, 0x58, 0x43, 0x48, 0x49, 0x50, 0x4E, 0x46, 0x54, 0x01}

// Instruction bytes for this chip family. Conventional placeholders — the
// exact opcodes are a property of the physical chip SKU, not this protocol
// layer, and are expected to be overridden per-deployment if a different
// chip revision ships.
const (
	insSelectApp         byte = 0xA4
	insGetKeyInfo        byte = 0xF2
	insGenerateKey       byte = 0xF3
	insGenerateSignature byte = 0xF4
)

// KeyInfo is the chip auth record (spec.md §3): the chip's uncompressed
// public key plus its two monotone, chip-maintained, informational
// counters.
type KeyInfo struct {
	PublicKey     [65]byte
	GlobalCounter uint32
	KeyCounter    uint32
}

// Handler drives the APDU state machine against a single connected tag for
// the duration of one operation. It holds no state across operations.
type Handler struct {
	transport apdu.RawTransport
}

// NewHandler wraps a raw transport (the live tag connection established by
// internal/session) in the chip command state machine.
func NewHandler(transport apdu.RawTransport) *Handler {
	return &Handler{transport: transport}
}

// SelectApp issues the SELECT_APP command. Must precede every other command
// in a session; the chip rejects GET_KEY_INFO/GENERATE_SIGNATURE issued
// against no selected applet.
func (h *Handler) SelectApp(ctx context.Context) error {
	resp, err := apdu.Exchange(ctx, h.transport, apdu.Command{
		CLA: 0x00, INS: insSelectApp, P1: 0x04, P2: 0x00, Data: AID[:], Le: 0,
	})
	if err != nil {
		return chiperr.Wrap(chiperr.Transport, "SELECT_APP exchange failed", err)
	}
	if !resp.OK() {
		return chiperr.New(chiperr.ChipProtocol, fmt.Sprintf("SELECT_APP returned %s", resp.SW))
	}
	return nil
}

// GetKeyInfo reads the key record at keyIndex. A 0x6A88 status word ("key
// with index not available") is not itself an error here; callers use
// EnsureKey to auto-provision instead of handling that status manually.
func (h *Handler) GetKeyInfo(ctx context.Context, keyIndex byte) (KeyInfo, apdu.StatusWord, error) {
	resp, err := apdu.Exchange(ctx, h.transport, apdu.Command{
		CLA: 0x00, INS: insGetKeyInfo, P1: keyIndex, P2: 0x00, Le: 0,
	})
	if err != nil {
		return KeyInfo{}, 0, chiperr.Wrap(chiperr.Transport, "GET_KEY_INFO exchange failed", err)
	}
	if !resp.OK() {
		return KeyInfo{}, resp.SW, nil
	}

	info, err := decodeKeyInfoBody(resp.Body)
	if err != nil {
		return KeyInfo{}, 0, chiperr.Wrap(chiperr.ChipProtocol, "malformed GET_KEY_INFO response", err)
	}
	return info, apdu.SWSuccess, nil
}

// GenerateKey asks the chip to provision its next key slot.
func (h *Handler) GenerateKey(ctx context.Context) error {
	resp, err := apdu.Exchange(ctx, h.transport, apdu.Command{
		CLA: 0x00, INS: insGenerateKey, P1: 0x00, P2: 0x00, Le: 0,
	})
	if err != nil {
		return chiperr.Wrap(chiperr.Transport, "GENERATE_KEY exchange failed", err)
	}
	if resp.SW == apdu.SWStorageFull {
		return chiperr.New(chiperr.ChipProtocol, "chip key storage is full")
	}
	if !resp.OK() {
		return chiperr.New(chiperr.ChipProtocol, fmt.Sprintf("GENERATE_KEY returned %s", resp.SW))
	}
	return nil
}

// EnsureKey returns the key record at keyIndex, provisioning keys one at a
// time (per the §4.6 state machine: GENERATE_KEY -> re-check -> loop) until
// the requested index exists or the chip reports storage full.
func (h *Handler) EnsureKey(ctx context.Context, keyIndex byte) (KeyInfo, error) {
	for {
		info, sw, err := h.GetKeyInfo(ctx, keyIndex)
		if err != nil {
			return KeyInfo{}, err
		}
		if sw == apdu.SWSuccess {
			return info, nil
		}
		if sw != apdu.SWKeyNotAvailable {
			return KeyInfo{}, chiperr.New(chiperr.ChipProtocol, fmt.Sprintf("GET_KEY_INFO returned %s", sw))
		}
		if err := h.GenerateKey(ctx); err != nil {
			return KeyInfo{}, err
		}
	}
}

// GenerateSignature asks the chip to sign msgHash with the key at keyIndex.
// msgHash must be exactly 32 bytes — a shorter or longer hash is a fatal
// invariant violation, not a transport error, per spec.md §4.6.
func (h *Handler) GenerateSignature(ctx context.Context, keyIndex byte, msgHash [32]byte) (KeyInfo, der.Signature, error) {
	resp, err := apdu.Exchange(ctx, h.transport, apdu.Command{
		CLA: 0x00, INS: insGenerateSignature, P1: keyIndex, P2: 0x00, Data: msgHash[:], Le: 0,
	})
	if err != nil {
		return KeyInfo{}, der.Signature{}, chiperr.Wrap(chiperr.Transport, "GENERATE_SIGNATURE exchange failed", err)
	}
	if !resp.OK() {
		return KeyInfo{}, der.Signature{}, chiperr.New(chiperr.ChipProtocol, fmt.Sprintf("GENERATE_SIGNATURE returned %s", resp.SW))
	}

	if len(resp.Body) < 8 {
		return KeyInfo{}, der.Signature{}, chiperr.New(chiperr.ChipProtocol, "GENERATE_SIGNATURE response too short for counters")
	}
	globalCounter := be32(resp.Body[0:4])
	keyCounter := be32(resp.Body[4:8])
	derSig := resp.Body[8:]

	sig, err := der.Parse(derSig)
	if err != nil {
		return KeyInfo{}, der.Signature{}, chiperr.Wrap(chiperr.Der, "could not parse chip signature", err)
	}

	return KeyInfo{GlobalCounter: globalCounter, KeyCounter: keyCounter}, sig, nil
}

// decodeKeyInfoBody parses global_counter(4)||key_counter(4)||pubkey, where
// pubkey is either the full 65-byte 0x04||X||Y form or, on chip variants
// that omit the leading tag, the bare 64-byte X||Y form (normalized here by
// prepending 0x04).
func decodeKeyInfoBody(body []byte) (KeyInfo, error) {
	if len(body) < 8 {
		return KeyInfo{}, fmt.Errorf("response is %d bytes, too short for the two counters", len(body))
	}
	info := KeyInfo{
		GlobalCounter: be32(body[0:4]),
		KeyCounter:    be32(body[4:8]),
	}

	pub := body[8:]
	switch len(pub) {
	case 65:
		if pub[0] != 0x04 {
			return KeyInfo{}, fmt.Errorf("65-byte public key has unexpected tag 0x%02x", pub[0])
		}
		copy(info.PublicKey[:], pub)
	case 64:
		info.PublicKey[0] = 0x04
		copy(info.PublicKey[1:], pub)
	default:
		return KeyInfo{}, fmt.Errorf("public key field is %d bytes, want 64 or 65", len(pub))
	}
	return info, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
