package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, 10, cfg.PollAttempts)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.ReaderTimeout)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chipauth.yaml")
	content := "network: mainnet\ncontract_id: \"deadbeef\"\npoll_attempts: 15\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "deadbeef", cfg.ContractID)
	assert.Equal(t, 15, cfg.PollAttempts)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("CHIPAUTH_NETWORK", "futurenet")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "futurenet", cfg.Network)
}
