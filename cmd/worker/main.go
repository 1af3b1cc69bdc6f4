// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/unclebandit/medshare-backend/internal/config"
	"github.com/unclebandit/medshare-backend/internal/logger"
)

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "worker",
		Short:        "Moves engagement events into the reporting store",
		SilenceUsage: true,
	}
	root.AddCommand(newSyncCmd(cfg), newRunCmd(cfg), newTriggerCmd(cfg))
	return root
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("worker failed")
		stop()
		os.Exit(1)
	}
}
