package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	transferFrom     string
	transferTo       string
	transferTokenID  uint64
	transferSequence uint64
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Authorize and submit a transfer operation",
	RunE:  runTransfer,
}

func init() {
	transferCmd.Flags().StringVar(&transferFrom, "from", "", "current owner account address")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "recipient account address")
	transferCmd.Flags().Uint64Var(&transferTokenID, "token-id", 0, "token id to transfer")
	transferCmd.Flags().Uint64Var(&transferSequence, "sequence", 1, "submitter account sequence number")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("token-id")
	rootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, args []string) error {
	orc, err := buildOrchestrator()
	if err != nil {
		return err
	}

	res, err := orc.Transfer(cmd.Context(), transferSequence, transferFrom, transferTo, transferTokenID)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(res, fmt.Sprintf("transferred: tx %s", res.TxHash))
	return nil
}
