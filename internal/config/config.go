// Package config loads chipauthctl's configuration via viper, the same
// file-plus-environment-plus-defaults layering the host ecosystem's control
// plane uses for its own Config/Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the configuration surface SPEC_FULL.md §4.13 names.
type Config struct {
	Network           string        `mapstructure:"network"` // testnet|mainnet|futurenet
	HorizonURL        string        `mapstructure:"horizon_url"`
	RPCURL            string        `mapstructure:"rpc_url"`
	ContractID        string        `mapstructure:"contract_id"`
	NetworkPassphrase string        `mapstructure:"network_passphrase"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	PollAttempts      int           `mapstructure:"poll_attempts"`
	ReaderTimeout     time.Duration `mapstructure:"reader_timeout"`
	SubmitterAccount  string        `mapstructure:"submitter_account"`
	PrefsPath         string        `mapstructure:"prefs_path"`
}

// Load reads configuration from an optional config file, then the
// CHIPAUTH_-prefixed environment, then the defaults set below, in that
// precedence order (env overrides file, file overrides defaults).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("chipauth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.chipauth")
		v.AddConfigPath("/etc/chipauth")
	}

	v.SetEnvPrefix("CHIPAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "testnet")
	v.SetDefault("horizon_url", "https://horizon-testnet.stellar.org")
	v.SetDefault("rpc_url", "https://soroban-testnet.stellar.org")
	v.SetDefault("network_passphrase", "Test SDF Network ; September 2015")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("poll_attempts", 10)
	v.SetDefault("reader_timeout", "60s")
	v.SetDefault("prefs_path", "$HOME/.chipauth/prefs.json")
}
