package cli

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relnote/logvec"
	"github.com/relnote/logvec/internal/source"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Follow the changelog change feed and keep the index current",
	Long: `Subscribe to the configured Postgres changelog source and apply row
changes to the vector index as they happen. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if cfg.Source.DSN == "" {
		return fmt.Errorf("sync requires a source dsn in the config")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := source.NewPostgresSource(ctx, cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close(cmd.Context()) }()

	engine, err := logvec.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	log.Printf("following changelog changes, ctrl-c to stop")
	if err := engine.Sync(ctx, src); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
