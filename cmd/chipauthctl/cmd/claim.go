package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var claimClaimant string
var claimSequence uint64

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Authorize and submit a claim operation",
	RunE:  runClaim,
}

func init() {
	claimCmd.Flags().StringVar(&claimClaimant, "claimant", "", "claimant account address")
	claimCmd.Flags().Uint64Var(&claimSequence, "sequence", 1, "submitter account sequence number")
	_ = claimCmd.MarkFlagRequired("claimant")
	rootCmd.AddCommand(claimCmd)
}

func runClaim(cmd *cobra.Command, args []string) error {
	orc, err := buildOrchestrator()
	if err != nil {
		return err
	}

	res, err := orc.Claim(cmd.Context(), claimSequence, claimClaimant)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(res, fmt.Sprintf("claimed: tx %s", res.TxHash))
	return nil
}
