package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/relnote/logvec"
	"github.com/relnote/logvec/internal/source"
)

var indexCmd = &cobra.Command{
	Use:   "index [entries-file]",
	Short: "Drop and rebuild the vector index",
	Long: `Rebuild the whole vector index from a changelog source.

With an entries file argument, entries are read from JSON or YAML. Without
one, the configured Postgres changelog source is used.

Examples:
  logvec index entries.json      # Rebuild from a file
  logvec index                   # Rebuild from the configured source`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	src, cleanup, err := resolveSource(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	engine, err := logvec.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		_ = bar.Set(done)
	}

	stats, err := engine.IndexAll(cmd.Context(), src, progress)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Println(stats.Summary())
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d entries failed to index", stats.Failed)
	}
	return nil
}

// resolveSource picks the entries file when given, otherwise the
// configured Postgres source
func resolveSource(cmd *cobra.Command, args []string) (source.Source, func(), error) {
	noop := func() {}
	if len(args) > 0 {
		src, err := source.LoadFile(args[0])
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	}

	if cfg.Source.DSN == "" {
		return nil, noop, fmt.Errorf("no entries file given and no source dsn configured")
	}
	pg, err := source.NewPostgresSource(cmd.Context(), cfg.Source.DSN)
	if err != nil {
		return nil, noop, err
	}
	return pg, func() { _ = pg.Close(cmd.Context()) }, nil
}
