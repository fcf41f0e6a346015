package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/client"
	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/signatures"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a signature session",
	Long: `Create a new signature session on the relay.

The owner's public key (from --keys-dir) and the instructions are uploaded;
the relay returns the session id and the URL to share with the signer.

Example:
  sigctl create --instructions "Please sign the consent form" --signer-name "Jane Doe"`,
	RunE: runCreate,
}

var (
	instructions string
	signerName   string
	ttlMinutes   int
)

func init() {
	createCmd.Flags().StringVar(&instructions, "instructions", "", "Instructions shown to the signer (required)")
	createCmd.Flags().StringVar(&signerName, "signer-name", "", "Name of the signer (optional)")
	createCmd.Flags().IntVar(&ttlMinutes, "ttl-minutes", 0, "Session TTL in minutes (0 = relay default)")
	_ = createCmd.MarkFlagRequired("instructions")
}

func runCreate(cmd *cobra.Command, args []string) error {
	publicKey, err := crypto.ReadP256PublicKeyFromJWKFile(keysDir, "public.jwk")
	if err != nil {
		return err
	}

	keyID, err := crypto.GenerateKeyIDFromP256Key(publicKey)
	if err != nil {
		return err
	}

	publicKeyJWK, err := crypto.PublicKeyJWKJSON(publicKey, keyID)
	if err != nil {
		return err
	}

	relay := client.NewClient(relayURL, nil)

	resp, err := relay.CreateSession(cmd.Context(), &signatures.CreateSessionRequest{
		OwnerPublicKey: publicKeyJWK,
		Instructions:   instructions,
		SignerName:     signerName,
		TTLMinutes:     ttlMinutes,
	})
	if err != nil {
		return err
	}

	appLogger.Info("session created",
		slog.String("session_id", resp.SessionID),
		slog.Time("expires_at", resp.ExpiresAt))

	fmt.Printf("Session created: %s\n", resp.SessionID)
	fmt.Printf("Share this URL with the signer: %s\n", resp.SignURL)
	fmt.Printf("Expires at: %s\n", resp.ExpiresAt)

	return nil
}
