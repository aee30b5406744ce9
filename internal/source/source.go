package source

import (
	"context"
	"errors"

	"github.com/relnote/logvec/pkg/types"
)

// ErrSourceUnavailable indicates the source of record cannot be reached
var ErrSourceUnavailable = errors.New("changelog source unavailable")

// Source provides the changelog entries that get indexed. Implementations
// return entries newest first by creation time.
type Source interface {
	// ListEntries returns every changelog entry, ordered by CreatedAt
	// descending
	ListEntries(ctx context.Context) ([]types.ChangelogEntry, error)
}

// Watcher extends a Source with an incremental change feed. The channel
// closes when the context is cancelled or the underlying connection is
// lost; callers that need continuity should reconnect and trigger a full
// rebuild to cover any missed events.
type Watcher interface {
	Source

	// Changes streams create, update, and delete events as they happen
	Changes(ctx context.Context) (<-chan types.ChangeEvent, error)
}
