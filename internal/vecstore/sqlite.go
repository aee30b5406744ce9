package vecstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"
)

// SQLiteStore implements Store on a local SQLite database. Vectors are
// stored as little-endian float32 blobs. The dimension is recorded in
// index_meta on first open; reopening with a different dimension fails
// rather than letting mixed-dimension vectors accumulate.
type SQLiteStore struct {
	db        *sql.DB
	dimension int
}

// openSQLite opens a SQLite database with appropriate settings
func openSQLite(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(SQLiteDriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed vector store
// enforcing the given embedding dimension.
func NewSQLiteStore(dbPath string, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidRecord)
	}

	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	store := &SQLiteStore{db: db, dimension: dimension}
	if err := store.checkDimension(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// checkDimension records the store dimension on first open and verifies it
// on subsequent opens
func (s *SQLiteStore) checkDimension(ctx context.Context) error {
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = 'dimension'").Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES ('dimension', ?)", strconv.Itoa(s.dimension))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	existing, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("%w: corrupt dimension metadata %q", ErrStoreUnavailable, stored)
	}
	if existing != s.dimension {
		return fmt.Errorf("%w: store was created with dimension %d, opened with %d", ErrDimensionMismatch, existing, s.dimension)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, record Record) error {
	if err := record.Validate(s.dimension); err != nil {
		return err
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO changelog_embeddings
			(id, changelog_id, version, product, content, vector, dimension, source_created_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			changelog_id = excluded.changelog_id,
			version = excluded.version,
			product = excluded.product,
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension,
			source_created_at = excluded.source_created_at,
			updated_at = excluded.updated_at
	`, record.ID, record.Meta.ChangelogID, record.Meta.Version, record.Meta.Product,
		record.Content, serializeVector(record.Vector), len(record.Vector),
		record.Meta.CreatedAt, now, now)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreUnavailable, record.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, changelog_id, version, product, content, vector, source_created_at
		FROM changelog_embeddings
		ORDER BY changelog_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var product sql.NullString
		var blob []byte
		var createdAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Meta.ChangelogID, &rec.Meta.Version, &product,
			&rec.Content, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		rec.Meta.Product = product.String
		if createdAt.Valid {
			rec.Meta.CreatedAt = createdAt.Time
		}
		rec.Vector = deserializeVector(blob)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *SQLiteStore) DeleteByChangelogID(ctx context.Context, changelogID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings WHERE changelog_id = ?", changelogID)
	if err != nil {
		return fmt.Errorf("%w: delete changelog %d: %v", ErrStoreUnavailable, changelogID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, id, err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM changelog_embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings")
	if err != nil {
		return fmt.Errorf("%w: clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) Dimension() int {
	return s.dimension
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}
