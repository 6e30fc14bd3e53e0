package recovery

import (
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimpdao/chipauth/internal/curve"
	"github.com/chimpdao/chipauth/internal/der"
)

func signAndShape(t *testing.T, priv *btcec.PrivateKey, hash [32]byte) (r, s [32]byte) {
	t.Helper()
	sig := ecdsa.Sign(priv, hash[:])
	parsed, err := der.Parse(sig.Serialize())
	require.NoError(t, err)

	normS, err := curve.NormalizeS(parsed.S[:])
	require.NoError(t, err)
	copy(s[:], normS)
	r = parsed.R
	return r, s
}

// Exercises invariant 2 from spec.md §8: exactly one rid in {0,1,2,3}
// reproduces the chip's public key for a real signature.
func TestResolve_ExactlyOneMatch(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubKey65 := priv.PubKey().SerializeUncompressed()

	hash := sha256.Sum256([]byte("mint authorization payload"))
	r, s := signAndShape(t, priv, hash)

	rid, err := Resolve(hash[:], r[:], s[:], pubKey65)
	require.NoError(t, err)
	assert.Less(t, rid, uint8(4))

	recovered, ok := curve.Recover(hash[:], r[:], s[:], rid)
	require.True(t, ok)
	assert.Equal(t, pubKey65, recovered)

	matches := 0
	for cand := uint8(0); cand <= 3; cand++ {
		if rec, ok := curve.Recover(hash[:], r[:], s[:], cand); ok {
			if string(rec) == string(pubKey65) {
				matches++
			}
		}
	}
	assert.Equal(t, 1, matches)
}

func TestResolve_NoMatchForDifferentKey(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	hash := sha256.Sum256([]byte("claim authorization payload"))
	r, s := signAndShape(t, priv, hash)

	_, err = Resolve(hash[:], r[:], s[:], other.PubKey().SerializeUncompressed())
	require.Error(t, err)
}

func TestResolve_RejectsShortExpectedKey(t *testing.T) {
	_, err := Resolve(make([]byte, 32), make([]byte, 32), make([]byte, 32), make([]byte, 64))
	require.Error(t, err)
}
