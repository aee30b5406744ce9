package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/relnote/logvec/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "logvec",
	Short: "Semantic retrieval engine for changelog entries",
	Long: `logvec embeds changelog entries into vectors and ranks them by cosine
similarity against natural language queries, so release-notes tooling can
pull in relevant history as context.

Example usage:
  logvec index entries.json            # Rebuild the index from a file
  logvec search "breaking auth changes" # Find related changelog entries
  logvec status                        # Show provider and index state`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() {
	log.SetOutput(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.logvec/config.yaml)")
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "logvec.yaml"
	}
	return filepath.Join(home, ".logvec", "config.yaml")
}
