package indexer

import (
	"fmt"
	"strings"

	"github.com/relnote/logvec/pkg/types"
)

// SearchableText derives the text that gets embedded for a changelog entry.
// The version line and optional product line are prepended so that queries
// like "what changed in 2.1" or "gateway fixes" can match on metadata, not
// just prose. Sections are separated by blank lines to keep token
// boundaries clean for the embedding model.
func SearchableText(entry types.ChangelogEntry) string {
	parts := make([]string, 0, 3)
	parts = append(parts, fmt.Sprintf("Version %s", entry.Version))
	if entry.Product != "" {
		parts = append(parts, fmt.Sprintf("Product: %s", entry.Product))
	}
	parts = append(parts, entry.Content)
	return strings.Join(parts, "\n\n")
}
