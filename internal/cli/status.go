package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/client"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Show session info",
	Long: `Fetch the signer-facing info for a session.

A 410 response means the session expired before the signer submitted;
a 409 means it has already been completed.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	relay := client.NewClient(relayURL, nil)

	info, err := relay.GetSessionInfo(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session %s is waiting for a submission\n", args[0])
	fmt.Printf("Instructions: %s\n", info.Instructions)
	if info.SignerName != "" {
		fmt.Printf("Signer: %s\n", info.SignerName)
	}

	return nil
}
