package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/client"
	"github.com/inkwell-health/signature-relay/internal/crypto"
	"github.com/inkwell-health/signature-relay/internal/session"
)

// awaitCmd represents the await command
var awaitCmd = &cobra.Command{
	Use:   "await <session-id>",
	Short: "Wait for the signature and decrypt it",
	Long: `Long-poll the relay until the session completes or expires.

On completion the encrypted envelope is decrypted locally with the owner's
private key and the signature image is written to --output. A decryption
failure aborts the command - it means the ciphertext was tampered with or the
keys do not match, and must never be treated as "no signature yet".

Example:
  sigctl await 2f1f... --output signature.png`,
	Args: cobra.ExactArgs(1),
	RunE: runAwait,
}

var (
	outputPath  string
	pollTimeout time.Duration
)

func init() {
	awaitCmd.Flags().StringVar(&outputPath, "output", "signature.png", "File to write the decrypted signature image to")
	awaitCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 30*time.Second, "Timeout per poll request")
}

func runAwait(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	privateKey, err := crypto.ReadP256PrivateKeyFromJWKFile(keysDir, "private.jwk")
	if err != nil {
		return err
	}

	relay := client.NewClient(relayURL, nil)

	appLogger.Info("waiting for signature",
		slog.String("session_id", sessionID))

	resp, err := relay.AwaitCompletion(cmd.Context(), sessionID, pollTimeout)
	if err != nil {
		return err
	}

	if resp.Status == session.StatusExpired {
		return fmt.Errorf("session %s expired before a signature was submitted", sessionID)
	}

	// cross-check the envelope against the checksum the relay recorded at
	// submission time
	checksum, err := crypto.EnvelopeChecksum(resp.EncryptedPayload)
	if err != nil {
		return err
	}
	for _, entry := range resp.AuditLog {
		if entry.Event == session.AuditSubmitted && entry.EnvelopeChecksum != checksum {
			return fmt.Errorf("envelope checksum %s does not match audit log entry %s", checksum, entry.EnvelopeChecksum)
		}
	}

	payload, err := crypto.OpenSignaturePayload(resp.EncryptedPayload, privateKey)
	if err != nil {
		// hard failure: tampering or key mismatch
		return fmt.Errorf("failed to decrypt submission: %w", err)
	}

	if err := os.WriteFile(outputPath, payload.SignatureImage, 0600); err != nil {
		return fmt.Errorf("failed to write signature image: %w", err)
	}

	appLogger.Info("signature decrypted",
		slog.String("session_id", sessionID),
		slog.Time("captured_at", payload.CapturedAt),
		slog.String("output", outputPath))

	fmt.Printf("Signature captured at %s written to %s\n", payload.CapturedAt, outputPath)

	fmt.Println("Audit log:")
	for _, entry := range resp.AuditLog {
		fmt.Printf("  %s  %-9s  %s %s\n", entry.Timestamp.Format(time.RFC3339), entry.Event, entry.IP, entry.UserAgent)
	}

	return nil
}
