package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chimpdao/chipauth/internal/codec"
	"github.com/chimpdao/chipauth/internal/contract"
	"github.com/chimpdao/chipauth/internal/nonce"
)

var noncePubKeyHex string
var nonceSequence uint64

var nonceCmd = &cobra.Command{
	Use:   "nonce",
	Short: "Print the next replay nonce for a chip public key",
	Long: `Reads the contract's current nonce for the given 65-byte
uncompressed public key (hex, with or without a 0x prefix) and prints the
next nonce an operation must authorize with. A never-seen key reports 0.`,
	RunE: runNonce,
}

func init() {
	nonceCmd.Flags().StringVar(&noncePubKeyHex, "pubkey", "", "chip public key, hex-encoded uncompressed (65 bytes)")
	nonceCmd.Flags().Uint64Var(&nonceSequence, "sequence", 1, "submitter account sequence number")
	_ = nonceCmd.MarkFlagRequired("pubkey")
	rootCmd.AddCommand(nonceCmd)
}

func runNonce(cmd *cobra.Command, args []string) error {
	pub, err := codec.DecodeHex(noncePubKeyHex)
	if err != nil {
		return fmt.Errorf("chipauthctl: --pubkey: %w", err)
	}

	contractID := resolveContractID()

	contractClient := contract.New(contract.Config{
		RPCURL:       cfg.RPCURL,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
	})
	coord := nonce.New(contractClient)

	n, err := coord.NextNonce(cmd.Context(), cfg.SubmitterAccount, nonceSequence, contractID, pub)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(map[string]uint32{"next_nonce": n}, fmt.Sprintf("next nonce: %d", n))
	return nil
}
