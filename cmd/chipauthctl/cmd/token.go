package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chimpdao/chipauth/internal/contract"
	"github.com/chimpdao/chipauth/internal/prefs"
)

var ownerOfTokenID uint64
var ownerOfSequence uint64

var ownerOfCmd = &cobra.Command{
	Use:   "owner-of",
	Short: "Print the current owner of a token id",
	RunE:  runOwnerOf,
}

var tokenURITokenID uint64
var tokenURISequence uint64

var tokenURICmd = &cobra.Command{
	Use:   "token-uri",
	Short: "Print the metadata URI of a token id",
	RunE:  runTokenURI,
}

func init() {
	ownerOfCmd.Flags().Uint64Var(&ownerOfTokenID, "token-id", 0, "token id to look up")
	ownerOfCmd.Flags().Uint64Var(&ownerOfSequence, "sequence", 1, "submitter account sequence number")
	_ = ownerOfCmd.MarkFlagRequired("token-id")
	rootCmd.AddCommand(ownerOfCmd)

	tokenURICmd.Flags().Uint64Var(&tokenURITokenID, "token-id", 0, "token id to look up")
	tokenURICmd.Flags().Uint64Var(&tokenURISequence, "sequence", 1, "submitter account sequence number")
	_ = tokenURICmd.MarkFlagRequired("token-id")
	rootCmd.AddCommand(tokenURICmd)
}

// resolveContractID returns the prefs-store override, falling back to the
// configured default.
func resolveContractID() string {
	contractID := cfg.ContractID
	if prefsStore, err := prefs.Open(expandHome(cfg.PrefsPath)); err == nil {
		if rec := prefsStore.Get(); rec.ContractID != "" {
			contractID = rec.ContractID
		}
	}
	return contractID
}

func runOwnerOf(cmd *cobra.Command, args []string) error {
	contractClient := contract.New(contract.Config{
		RPCURL:       cfg.RPCURL,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
	})

	owner, err := contractClient.OwnerOf(cmd.Context(), cfg.SubmitterAccount, ownerOfSequence, resolveContractID(), ownerOfTokenID)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(map[string]string{"owner": owner}, fmt.Sprintf("owner: %s", owner))
	return nil
}

func runTokenURI(cmd *cobra.Command, args []string) error {
	contractClient := contract.New(contract.Config{
		RPCURL:       cfg.RPCURL,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
	})

	uri, err := contractClient.TokenURI(cmd.Context(), cfg.SubmitterAccount, tokenURISequence, resolveContractID(), tokenURITokenID)
	if err != nil {
		printErr(err)
		return err
	}

	printResult(map[string]string{"token_uri": uri}, fmt.Sprintf("token uri: %s", uri))
	return nil
}
