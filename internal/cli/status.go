package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/relnote/logvec"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show embedding provider and index state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var removeCmd = &cobra.Command{
	Use:   "remove <changelog-id>",
	Short: "Remove a changelog entry's record from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(removeCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	engine, err := logvec.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	status, err := engine.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Provider:  %s (%s, %d dimensions)\n", status.Provider, status.Model, status.Dimension)
	fmt.Printf("Store:     %s\n", status.StoreBackend)
	fmt.Printf("Records:   %d\n", status.Records)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	changelogID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || changelogID <= 0 {
		return fmt.Errorf("changelog id must be a positive integer, got %q", args[0])
	}

	engine, err := logvec.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	if err := engine.RemoveEntry(cmd.Context(), changelogID); err != nil {
		return err
	}
	fmt.Printf("Removed changelog %d from the index.\n", changelogID)
	return nil
}
