// Package cmd implements chipauthctl's command tree: a rootCmd with global
// --json/--config flags and mint/claim/transfer/nonce subcommands, mirroring
// the host ecosystem's popctl layout (root command + per-operation
// subcommands, each wiring config through to a client and printing pretty
// or JSON output).
package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chimpdao/chipauth/internal/chiperr"
	"github.com/chimpdao/chipauth/internal/config"
)

var (
	cfgFile    string
	jsonOutput bool
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chipauthctl",
	Short: "Authorize chip-signed mint/claim/transfer operations",
	Long: `chipauthctl drives the chip-authorization pipeline: it opens a
reader session, walks the chip through SELECT_APP/GET_KEY_INFO/
GENERATE_SIGNATURE, normalizes and shapes the resulting signature, resolves
its recovery id, and submits the authorized call to the NFT contract.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := slog.LevelInfo
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		logger = slog.New(handler)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printErr(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./chipauth.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON output")
}

// printResult renders a successful command result either as indented JSON
// (--json) or as a short human-readable line.
func printResult(data interface{}, human string) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(data)
		return
	}
	fmt.Println(colorGreen(human))
}

// printErr renders a failed command using the short/long message pair
// chiperr.ToMessage derives for any error.
func printErr(err error) {
	msg := chiperr.ToMessage(err)
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]string{"error": msg.Short, "detail": msg.Long})
		return
	}
	fmt.Fprintln(os.Stderr, colorRed(msg.Short))
	fmt.Fprintln(os.Stderr, msg.Long)
}

func colorGreen(s string) string { return "\033[32m" + s + "\033[0m" }
func colorRed(s string) string   { return "\033[31m" + s + "\033[0m" }
