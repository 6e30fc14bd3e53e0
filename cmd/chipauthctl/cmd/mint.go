package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mintTo string
var mintSequence uint64

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Authorize and submit a mint operation",
	Long: `Opens a reader session, drives the chip through signature
generation, and submits a mint(to) call authorized by that signature.`,
	RunE: runMint,
}

func init() {
	mintCmd.Flags().StringVar(&mintTo, "to", "", "recipient account address")
	mintCmd.Flags().Uint64Var(&mintSequence, "sequence", 1, "submitter account sequence number")
	_ = mintCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(mintCmd)
}

func runMint(cmd *cobra.Command, args []string) error {
	orc, err := buildOrchestrator()
	if err != nil {
		return err
	}

	res, err := orc.Mint(cmd.Context(), mintSequence, mintTo)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(res, fmt.Sprintf("minted: tx %s", res.TxHash))
	return nil
}
