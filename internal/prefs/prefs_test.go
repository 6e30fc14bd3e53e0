package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirAndEmptyRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Record{}, s.Get())
}

func TestSetContractIDPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.json")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SetContractID("CCONTRACT123"))
	require.NoError(t, s1.SetWalletAddress("GABCDEF"))

	s2, err := Open(path)
	require.NoError(t, err)
	rec := s2.Get()
	assert.Equal(t, "CCONTRACT123", rec.ContractID)
	assert.Equal(t, "GABCDEF", rec.WalletAddress)
}

func TestSetWalletAddressOverwritesPreviousValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetWalletAddress("GFIRST"))
	require.NoError(t, s.SetWalletAddress("GSECOND"))

	assert.Equal(t, "GSECOND", s.Get().WalletAddress)
}

func TestOpenRejectsCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetContractID("CCONTRACT123"))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupted)
}
