package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on a Postgres table with a pgvector column.
// It also implements NativeRanker: similarity ranking can be pushed into the
// database with the `<=>` cosine-distance operator. Callers must still keep
// the client-side scan as a fallback; SearchNative failing is not fatal.
type PostgresStore struct {
	db        *sql.DB
	dimension int
}

// NewPostgresStore connects to Postgres and prepares the embeddings table
func NewPostgresStore(dsn string, dimension int) (*PostgresStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidRecord)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrStoreUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
	}

	store := &PostgresStore{db: db, dimension: dimension}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS changelog_embeddings (
			id TEXT PRIMARY KEY,
			changelog_id BIGINT NOT NULL UNIQUE,
			version TEXT NOT NULL,
			product TEXT,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			source_created_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_changelog_embeddings_changelog
			ON changelog_embeddings (changelog_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("%w: migrate: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record Record) error {
	if err := record.Validate(s.dimension); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO changelog_embeddings
			(id, changelog_id, version, product, content, embedding, source_created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			changelog_id = EXCLUDED.changelog_id,
			version = EXCLUDED.version,
			product = EXCLUDED.product,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			source_created_at = EXCLUDED.source_created_at,
			updated_at = NOW()
	`, record.ID, record.Meta.ChangelogID, record.Meta.Version, nullableString(record.Meta.Product),
		record.Content, formatVector(record.Vector), record.Meta.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrStoreUnavailable, record.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, changelog_id, version, COALESCE(product, ''), content, embedding::text, source_created_at
		FROM changelog_embeddings
		ORDER BY changelog_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

// SearchNative ranks server-side using pgvector's cosine-distance operator.
// Semantics match the client scan: similarity strictly above threshold,
// descending order, at most limit rows.
func (s *PostgresStore) SearchNative(ctx context.Context, query []float32, threshold float64, limit int) ([]ScoredRecord, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, store has %d", ErrDimensionMismatch, len(query), s.dimension)
	}
	if limit <= 0 {
		return []ScoredRecord{}, nil
	}

	queryVec := formatVector(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, changelog_id, version, COALESCE(product, ''), content, embedding::text, source_created_at,
			1 - (embedding <=> $1) AS similarity
		FROM changelog_embeddings
		WHERE 1 - (embedding <=> $1) > $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, queryVec, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: native search: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var results []ScoredRecord
	for rows.Next() {
		var rec Record
		var product string
		var embText string
		var createdAt sql.NullTime
		var similarity float64
		if err := rows.Scan(&rec.ID, &rec.Meta.ChangelogID, &rec.Meta.Version, &product,
			&rec.Content, &embText, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		rec.Meta.Product = product
		if createdAt.Valid {
			rec.Meta.CreatedAt = createdAt.Time
		}
		rec.Vector = parseVector(embText)
		results = append(results, ScoredRecord{Record: rec, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

func (s *PostgresStore) DeleteByChangelogID(ctx context.Context, changelogID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings WHERE changelog_id = $1", changelogID)
	if err != nil {
		return fmt.Errorf("%w: delete changelog %d: %v", ErrStoreUnavailable, changelogID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, id, err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM changelog_embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM changelog_embeddings")
	if err != nil {
		return fmt.Errorf("%w: clear: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Dimension() int {
	return s.dimension
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// scanRecord reads one GetAll row
func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var product string
	var embText string
	var createdAt sql.NullTime
	if err := rows.Scan(&rec.ID, &rec.Meta.ChangelogID, &rec.Meta.Version, &product,
		&rec.Content, &embText, &createdAt); err != nil {
		return Record{}, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
	}
	rec.Meta.Product = product
	if createdAt.Valid {
		rec.Meta.CreatedAt = createdAt.Time
	}
	rec.Vector = parseVector(embText)
	return rec, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// formatVector converts a float32 slice to pgvector text format: "[0.1,0.2]"
func formatVector(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector converts pgvector text format back to a float32 slice
func parseVector(s string) []float32 {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			continue // Leave as zero; caller-side validation catches damage
		}
		result[i] = float32(f)
	}
	return result
}
