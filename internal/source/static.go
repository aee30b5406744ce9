package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relnote/logvec/pkg/types"
)

// StaticSource serves a fixed in-memory entry set. It backs the CLI's
// file-based indexing and doubles as the test source.
type StaticSource struct {
	mu      sync.RWMutex
	entries []types.ChangelogEntry
}

// NewStaticSource creates a source over the given entries
func NewStaticSource(entries []types.ChangelogEntry) *StaticSource {
	s := &StaticSource{}
	s.Replace(entries)
	return s
}

// Replace swaps the entry set
func (s *StaticSource) Replace(entries []types.ChangelogEntry) {
	copied := make([]types.ChangelogEntry, len(entries))
	copy(copied, entries)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].CreatedAt.After(copied[j].CreatedAt)
	})

	s.mu.Lock()
	s.entries = copied
	s.mu.Unlock()
}

// ListEntries returns the entries ordered by CreatedAt descending
func (s *StaticSource) ListEntries(_ context.Context) ([]types.ChangelogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ChangelogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// fileEntry is the on-disk shape of a changelog entry
type fileEntry struct {
	ID        int64  `json:"id" yaml:"id"`
	Version   string `json:"version" yaml:"version"`
	Content   string `json:"content" yaml:"content"`
	Product   string `json:"product,omitempty" yaml:"product,omitempty"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// LoadFile reads changelog entries from a JSON or YAML file, chosen by
// extension. Entries missing a creation time keep the zero time and sort
// last.
func LoadFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entries file: %w", err)
	}

	var raw []fileEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported entries file format %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}

	entries := make([]types.ChangelogEntry, 0, len(raw))
	for i, fe := range raw {
		entry := types.ChangelogEntry{
			ID:      fe.ID,
			Version: fe.Version,
			Content: fe.Content,
			Product: fe.Product,
		}
		if fe.CreatedAt != "" {
			created, err := parseTimestamp(fe.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			entry.CreatedAt = created
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}

	return NewStaticSource(entries), nil
}

// parseTimestamp accepts RFC 3339 or a bare date
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (want RFC 3339 or YYYY-MM-DD)", value)
}
