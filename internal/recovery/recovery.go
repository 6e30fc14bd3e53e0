// Package recovery implements the single, authoritative recovery-id
// resolver (spec.md §4.8, §9): every pipeline that needs a recovery id
// consults this package instead of hard-coding one.
package recovery

import (
	"fmt"

	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/codec"
	"github.com/chimpdao/chipauth/internal/curve"
)

// Resolve tries rid in {0,1,2,3}, recovering a candidate public key for
// each, and returns the first rid whose recovered key constant-time-equals
// expectedPubKey65. It does not cache across calls — a resolved rid for one
// signature says nothing about the next.
func Resolve(msgHash, r, s, expectedPubKey65 []byte) (rid uint8, err error) {
	if len(expectedPubKey65) != 65 {
		return 0, chiperr.Wrap(chiperr.Validation, "expected public key must be 65 bytes",
			fmt.Errorf("got %d", len(expectedPubKey65)))
	}

	for candidate := uint8(0); candidate <= 3; candidate++ {
		recovered, ok := curve.Recover(msgHash, r, s, candidate)
		if !ok {
			continue
		}
		if codec.ConstEq(recovered, expectedPubKey65) {
			return candidate, nil
		}
	}

	return 0, chiperr.New(chiperr.RecoveryIDUnmatched,
		"no recovery id in {0,1,2,3} reproduces the chip's public key")
}
