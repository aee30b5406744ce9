package types

import (
	"errors"
	"fmt"
	"time"
)

// ChangelogEntry represents a single row from the source-of-truth changelog
// table. The retrieval engine never owns this data; it only derives vector
// records from it.
type ChangelogEntry struct {
	ID        int64
	Version   string
	Content   string
	Product   string // Optional - empty when the entry is not product-scoped
	CreatedAt time.Time
}

// Validate checks if the entry carries enough state to be indexed
func (e *ChangelogEntry) Validate() error {
	if e.ID <= 0 {
		return ErrInvalidEntryID
	}
	if e.Version == "" {
		return ErrMissingVersion
	}
	if e.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// RecordID returns the deterministic vector-record id for this entry.
// The mapping is stable across updates, so upserts by this id are idempotent.
func (e *ChangelogEntry) RecordID() string {
	return RecordIDFor(e.ID)
}

// RecordIDFor derives a vector-record id from a changelog primary key
func RecordIDFor(changelogID int64) string {
	return fmt.Sprintf("changelog_%d", changelogID)
}

// ChangeKind identifies the type of source-table mutation
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is a row-level mutation notification from the source table.
// For ChangeDeleted only Entry.ID is guaranteed to be populated.
type ChangeEvent struct {
	Kind  ChangeKind
	Entry ChangelogEntry
}

// Validate checks the event is well-formed
func (ev *ChangeEvent) Validate() error {
	switch ev.Kind {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChangeKind, ev.Kind)
	}
	if ev.Entry.ID <= 0 {
		return ErrInvalidEntryID
	}
	return nil
}

// Domain errors for type validation
var (
	ErrInvalidEntryID    = errors.New("invalid changelog entry ID")
	ErrMissingVersion    = errors.New("version label is required")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrUnknownChangeKind = errors.New("unknown change kind")
)
