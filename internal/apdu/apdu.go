// Package apdu implements ISO-7816-4 command/response framing against a
// connected contactless tag (spec.md §4.5). The physical tag connection
// itself is out of scope (an external, platform-specific collaborator);
// this package only shapes and exchanges command APDUs.
package apdu

import (
	"context"
	"fmt"
)

// StatusWord is the two-byte SW1||SW2 trailer every response carries.
type StatusWord uint16

// SWSuccess is the canonical "OK" status word.
const SWSuccess StatusWord = 0x9000

// Known diagnostics the chip command handler inspects (spec.md §4.5).
const (
	SWKeyNotAvailable StatusWord = 0x6A88
	SWStorageFull      StatusWord = 0x6A84
)

func (sw StatusWord) String() string {
	return fmt.Sprintf("0x%04X", uint16(sw))
}

// Command is a single ISO-7816-4 command APDU: CLA INS P1 P2 [Lc Data] [Le].
type Command struct {
	CLA, INS, P1, P2 byte
	Data             []byte
	Le               int // expected response length; -1 means absent
}

// Bytes serializes the command into wire format. Only the short (single
// byte Lc/Le) APDU form is produced; the chip family this targets never
// needs extended-length framing (max Data/Le here is 255).
func (c Command) Bytes() ([]byte, error) {
	if len(c.Data) > 255 {
		return nil, fmt.Errorf("apdu: command data is %d bytes, exceeds short-form 255", len(c.Data))
	}
	out := []byte{c.CLA, c.INS, c.P1, c.P2}
	if len(c.Data) > 0 {
		out = append(out, byte(len(c.Data)))
		out = append(out, c.Data...)
	}
	if c.Le >= 0 {
		out = append(out, byte(c.Le))
	}
	return out, nil
}

// Response is a decoded response APDU: the body (everything before the
// trailing two status-word bytes) and the status word itself.
type Response struct {
	Body []byte
	SW   StatusWord
}

// OK reports whether the response's status word indicates success.
func (r Response) OK() bool {
	return r.SW == SWSuccess
}

// Exchange serializes cmd, round-trips it
// through raw, and decodes the status word from the trailing two bytes of
// the raw response.
func Exchange(ctx context.Context, raw RawTransport, cmd Command) (Response, error) {
	wire, err := cmd.Bytes()
	if err != nil {
		return Response{}, fmt.Errorf("apdu: %w", err)
	}

	resp, err := raw.Transmit(ctx, wire)
	if err != nil {
		return Response{}, fmt.Errorf("apdu: transmit failed: %w", err)
	}
	if len(resp) < 2 {
		return Response{}, fmt.Errorf("apdu: response shorter than the 2-byte status word (%d bytes)", len(resp))
	}

	sw := StatusWord(uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1]))
	return Response{Body: resp[:len(resp)-2], SW: sw}, nil
}

// RawTransport is the raw byte-level link to the tag: one capdu in, one
// rapdu (body + trailing SW1 SW2) out. This is the actual hardware
// boundary; everything above it is pure framing logic.
type RawTransport interface {
	Transmit(ctx context.Context, capdu []byte) (rapdu []byte, err error)
}
