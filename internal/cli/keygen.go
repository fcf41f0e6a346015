package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/crypto"
)

// keygenCmd represents the keygen command
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the owner's P-256 key pair",
	Long: `Generate a new P-256 key pair for signature sessions.

The public key is uploaded when a session is created; the private key never
leaves this machine and is required to decrypt the signer's submission.
Losing the private key means losing the ability to read the signature.

Example:
  sigctl keygen --keys-dir ./keys`,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.GenerateP256KeyPair()
	if err != nil {
		return err
	}

	keyID, err := crypto.GenerateKeyIDFromP256Key(&privateKey.PublicKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(keysDir, 0700); err != nil {
		return fmt.Errorf("failed to create keys directory: %w", err)
	}

	if err := crypto.SaveP256PrivateKeyToJWKFile(privateKey, keyID, keysDir, "private.jwk"); err != nil {
		return err
	}

	if err := crypto.SaveP256PublicKeyToJWKFile(&privateKey.PublicKey, keyID, keysDir, "public.jwk"); err != nil {
		return err
	}

	appLogger.Info("key pair generated",
		slog.String("key_id", keyID),
		slog.String("keys_dir", keysDir))

	fmt.Printf("Key pair written to %s (key id %s)\n", keysDir, keyID)
	fmt.Println("Keep private.jwk secret - it is the only way to decrypt submissions.")

	return nil
}
