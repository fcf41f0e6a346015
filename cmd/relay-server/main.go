package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-health/signature-relay/internal/config"
	"github.com/inkwell-health/signature-relay/internal/logger"
	"github.com/inkwell-health/signature-relay/internal/server"
	"github.com/inkwell-health/signature-relay/internal/session"
	"github.com/inkwell-health/signature-relay/internal/version"
)

//	@title			signature-relay
//	@description	signature-relay hosts end-to-end-encrypted signature sessions.
//	@description
//	@description	An owner creates a session with their public key, a signer submits an
//	@description	encrypted signature envelope, and the owner retrieves it via long-poll.
//	@description	The relay stores only ciphertext and public keys - it cannot decrypt
//	@description	any submission.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Sessions are held in memory only and do not survive a restart.
//	@description
//	@license.name	MIT

//	@accept		json
//	@produce	json

//	@tag.name			Signatures
//	@tag.description	Signature session endpoints

func main() {
	cmd := &cobra.Command{
		Use:   "relay-server",
		Short: "End-to-end-encrypted signature session relay",
		Long:  `relay-server hosts signature sessions: owners create sessions, signers submit encrypted signatures, and the relay forwards ciphertext it cannot read`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewRelayConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PUBLIC_BASE_URL", cfg.PublicBaseURL),
		slog.Duration("SESSION_TTL", cfg.SessionTTL),
		slog.Duration("SESSION_RETENTION", cfg.SessionRetention),
		slog.Duration("SWEEP_INTERVAL", cfg.SweepInterval),
	)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.SessionTTL, cfg.SessionRetention, appLogger)

	sweeper := session.NewSweeper(store, cfg.SweepInterval, appLogger)
	go sweeper.Run(ctx)

	srv := server.NewServer(store, cfg, appLogger)

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
