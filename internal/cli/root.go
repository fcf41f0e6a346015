// Package cli implements sigctl, the owner-side command line client for the
// signature relay.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/logger"
	"github.com/inkwell-health/signature-relay/internal/version"
)

var (
	relayURL  string
	keysDir   string
	logLevel  string
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "sigctl",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Signature session owner CLI",
	Long:              `sigctl creates signature sessions on a relay, waits for the signer's encrypted submission, and decrypts it locally with the owner's private key`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appLogger = logger.InitLogger(logger.ParseLogLevel(logLevel), "dev")
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url", "http://localhost:8080", "Base URL of the signature relay")
	rootCmd.PersistentFlags().StringVar(&keysDir, "keys-dir", "./keys", "Directory holding the owner's JWK key files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(awaitCmd)
	rootCmd.AddCommand(submitCmd)
}
