package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/client"
	"github.com/inkwell-health/signature-relay/internal/crypto"
)

// submitCmd represents the submit command
//
// In production the signer draws in a browser; this command stands in for
// that client during development and end-to-end testing.
var submitCmd = &cobra.Command{
	Use:   "submit <session-id>",
	Short: "Submit a signature image as the signer (dev/test)",
	Long: `Encrypt a signature image and submit it to a waiting session.

This performs the full signer-side flow: fetch the session info, generate an
ephemeral key pair, encrypt the image against the owner's public key, and
upload the envelope.

Example:
  sigctl submit 2f1f... --image signature.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var imagePath string

func init() {
	submitCmd.Flags().StringVar(&imagePath, "image", "", "Signature image file to submit (required)")
	_ = submitCmd.MarkFlagRequired("image")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read signature image: %w", err)
	}

	relay := client.NewClient(relayURL, nil)

	resp, err := relay.SubmitSignature(cmd.Context(), sessionID, &crypto.SignaturePayload{
		SignatureImage: image,
		CapturedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Submission accepted, session %s is now %s\n", sessionID, resp.Status)

	return nil
}
