package cmd

import (
	"fmt"
	"os"

	"github.com/chimpdao/chipauth/internal/contract"
	"github.com/chimpdao/chipauth/internal/orchestrator"
	"github.com/chimpdao/chipauth/internal/session"
	"github.com/chimpdao/chipauth/internal/submitter"
)

// buildOrchestrator wires the loaded config into a ready-to-run
// orchestrator.Orchestrator: a reader session (stubbed until a platform
// reader driver is linked in), a contract RPC client, and the submitter
// signer boundary. Per spec.md §1/§3, the real OS-keychain-backed signer is
// an external collaborator; this build uses the in-memory reference
// implementation, reporting the configured submitter account address only.
func buildOrchestrator() (*orchestrator.Orchestrator, error) {
	contractID := resolveContractID()
	if contractID == "" {
		return nil, fmt.Errorf("chipauthctl: no contract id configured (set contract_id in the config or the prefs file)")
	}

	contractClient := contract.New(contract.Config{
		RPCURL:       cfg.RPCURL,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
	})

	sess := session.New(unwiredPoller{}, cfg.ReaderTimeout)
	signer := submitter.NewMemorySigner(cfg.SubmitterAccount)

	return orchestrator.New(orchestrator.Config{
		ContractID:        contractID,
		NetworkPassphrase: cfg.NetworkPassphrase,
		SubmitterAccount:  cfg.SubmitterAccount,
	}, sess, contractClient, signer, logger), nil
}

// expandHome expands a leading "$HOME" in path, the same shorthand
// internal/config's defaults use.
func expandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || len(path) < 5 || path[:5] != "$HOME" {
		return path
	}
	return home + path[5:]
}
