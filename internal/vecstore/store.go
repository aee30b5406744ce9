package vecstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Common errors
var (
	// ErrStoreUnavailable wraps failures of the underlying persistence layer
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the store's established dimension
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrMalformedVector is returned when a vector contains NaN or
	// non-finite components
	ErrMalformedVector = errors.New("malformed vector")
	// ErrInvalidRecord is returned for records missing required fields
	ErrInvalidRecord = errors.New("invalid record")
)

// RecordMeta carries denormalized attributes of the source changelog entry.
// The fields are fixed rather than an open key/value bag so schema and
// dimension invariants stay checkable.
type RecordMeta struct {
	ChangelogID int64
	Version     string
	Product     string // Optional
	CreatedAt   time.Time
}

// Record is the unit of storage: the embedded text, its vector, and the
// metadata needed to display a result without joining back to the source
// table. Exactly one record exists per live changelog entry.
type Record struct {
	ID      string // "changelog_<pk>", stable across updates
	Content string // The exact text that was embedded
	Vector  []float32
	Meta    RecordMeta
}

// Validate checks structural invariants that hold for every record in a
// store regardless of backend: a stable id, a source link, and a vector of
// the expected dimension with only finite components.
func (r *Record) Validate(wantDim int) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if r.Meta.ChangelogID <= 0 {
		return fmt.Errorf("%w: missing changelog id", ErrInvalidRecord)
	}
	if len(r.Vector) != wantDim {
		return fmt.Errorf("%w: got %d, store dimension is %d", ErrDimensionMismatch, len(r.Vector), wantDim)
	}
	for i, v := range r.Vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite component at index %d", ErrMalformedVector, i)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state
func (r *Record) Clone() Record {
	vec := make([]float32, len(r.Vector))
	copy(vec, r.Vector)
	out := *r
	out.Vector = vec
	return out
}

// Store persists vector records. Implementations reject writes that violate
// the dimension or finiteness invariants, leaving any prior record for the
// same id untouched. Deletes are idempotent: removing zero records is not
// an error.
type Store interface {
	// Upsert inserts or fully replaces the record with matching ID
	Upsert(ctx context.Context, record Record) error

	// GetAll returns every current record, in a deterministic order
	GetAll(ctx context.Context) ([]Record, error)

	// DeleteByChangelogID removes the record derived from the given source entry
	DeleteByChangelogID(ctx context.Context, changelogID int64) error

	// DeleteByID removes a record by vector-record id
	DeleteByID(ctx context.Context, id string) error

	// Count returns the number of currently indexed records
	Count(ctx context.Context) (int, error)

	// Clear removes every record; used by full re-index (drop and rebuild)
	Clear(ctx context.Context) error

	// Dimension returns the vector dimension this store enforces
	Dimension() int

	// Close releases underlying resources
	Close() error
}

// ScoredRecord pairs a record with a server-computed similarity score
type ScoredRecord struct {
	Record     Record
	Similarity float64
}

// NativeRanker is an optional capability: a store whose backend can rank by
// similarity server-side (e.g. pgvector). Implementations must apply the
// same semantics as the client-side scan: cosine similarity, strict
// threshold filter, descending order, truncation to limit. Callers fall
// back to the client-side scan when SearchNative fails.
type NativeRanker interface {
	SearchNative(ctx context.Context, query []float32, threshold float64, limit int) ([]ScoredRecord, error)
}
