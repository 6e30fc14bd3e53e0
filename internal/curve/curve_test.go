package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimpdao/chipauth/internal/codec"
)

// S1 from spec.md §8.
func TestNormalizeS_S1Vector(t *testing.T) {
	s, err := codec.DecodeHex("0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364140")
	require.NoError(t, err)

	got, err := NormalizeS(s)
	require.NoError(t, err)

	want, err := codec.PadLeft32([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNormalizeS_Idempotent(t *testing.T) {
	for _, hex := range []string{
		"0000000000000000000000000000000000000000000000000000000000000001",
		"7FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF5D576E7357A4501DDFE92F46681B20A0",
		"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364140",
	} {
		s, err := codec.DecodeHex(hex)
		require.NoError(t, err)

		once, err := NormalizeS(s)
		require.NoError(t, err)
		twice, err := NormalizeS(once)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.True(t, lte(once, HalfN))
	}
}

func lte(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return true
}

func TestRecoverDegenerateInput(t *testing.T) {
	_, ok := Recover(make([]byte, 31), make([]byte, 32), make([]byte, 32), 0)
	assert.False(t, ok)

	_, ok = Recover(make([]byte, 32), make([]byte, 32), make([]byte, 32), 4)
	assert.False(t, ok)
}

func TestValidateUncompressed(t *testing.T) {
	bad := make([]byte, 65)
	bad[0] = 0x04
	err := ValidateUncompressed(bad)
	require.Error(t, err)

	err = ValidateUncompressed(make([]byte, 64))
	require.Error(t, err)
}
