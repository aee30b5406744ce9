package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relnote/logvec"
	"github.com/relnote/logvec/pkg/types"
)

var (
	searchLimit      int
	searchAutoSelect bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search changelog entries by meaning",
	Long: `Rank indexed changelog entries by semantic similarity to a query.

Examples:
  logvec search "breaking changes to authentication"
  logvec search --limit 10 "rate limiting"
  logvec search --auto-select "memory leaks"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (default from config)")
	searchCmd.Flags().BoolVar(&searchAutoSelect, "auto-select", false, "narrow to strongly-matching entries")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	engine, err := logvec.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	var results []types.SearchResult
	if searchAutoSelect {
		results, err = engine.SearchForContext(cmd.Context(), query, searchLimit)
	} else {
		results, err = engine.Search(cmd.Context(), query, searchLimit)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matching changelog entries.")
		return nil
	}

	for i, r := range results {
		header := fmt.Sprintf("%d. %s (%d%% match)", i+1, r.Version, r.DisplayPercent())
		if r.Product != "" {
			header += " - " + r.Product
		}
		fmt.Println(header)
		if !r.CreatedAt.IsZero() {
			fmt.Printf("   %s\n", r.CreatedAt.Format("2006-01-02"))
		}
		fmt.Printf("   %s\n\n", indent(r.Content, "   "))
	}
	return nil
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "\n"+prefix)
}
