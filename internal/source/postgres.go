package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relnote/logvec/pkg/types"
)

// notifyChannel is the Postgres NOTIFY channel the trigger publishes on
const notifyChannel = "changelog_events"

// PostgresSource reads changelog entries from the application's changelogs
// table and streams row changes over LISTEN/NOTIFY. It implements Watcher.
type PostgresSource struct {
	dsn  string
	conn *pgx.Conn
}

// NewPostgresSource connects to the changelog database and installs the
// notification trigger if it is missing
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	s := &PostgresSource{dsn: dsn, conn: conn}
	if err := s.ensureTrigger(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

// ensureTrigger installs the row-change notification function and trigger.
// The payload carries the full row for inserts and updates so the consumer
// does not need a follow-up query; deletes only need the id.
func (s *PostgresSource) ensureTrigger(ctx context.Context) error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION notify_changelog_event() RETURNS trigger AS $$
		DECLARE
			payload JSON;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				payload = json_build_object('op', 'deleted', 'id', OLD.id);
			ELSE
				payload = json_build_object(
					'op', CASE TG_OP WHEN 'INSERT' THEN 'created' ELSE 'updated' END,
					'id', NEW.id,
					'version', NEW.version,
					'content', NEW.content,
					'product', NEW.product,
					'created_at', NEW.created_at
				);
			END IF;
			PERFORM pg_notify('` + notifyChannel + `', payload::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS changelog_notify ON changelogs`,
		`CREATE TRIGGER changelog_notify
			AFTER INSERT OR UPDATE OR DELETE ON changelogs
			FOR EACH ROW EXECUTE FUNCTION notify_changelog_event()`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: install trigger: %v", ErrSourceUnavailable, err)
		}
	}
	return nil
}

// ListEntries returns all changelog rows, newest first
func (s *PostgresSource) ListEntries(ctx context.Context) ([]types.ChangelogEntry, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, version, content, COALESCE(product, ''), created_at
		FROM changelogs
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var entries []types.ChangelogEntry
	for rows.Next() {
		var entry types.ChangelogEntry
		if err := rows.Scan(&entry.ID, &entry.Version, &entry.Content, &entry.Product, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrSourceUnavailable, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ErrSourceUnavailable, err)
	}
	return entries, nil
}

// Changes opens a dedicated listening connection and streams change events
// until the context is cancelled. The channel closes on cancellation or
// connection loss.
func (s *PostgresSource) Changes(ctx context.Context) (<-chan types.ChangeEvent, error) {
	listener, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: listener connect: %v", ErrSourceUnavailable, err)
	}
	if _, err := listener.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		_ = listener.Close(ctx)
		return nil, fmt.Errorf("%w: listen: %v", ErrSourceUnavailable, err)
	}

	events := make(chan types.ChangeEvent)
	go func() {
		defer close(events)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = listener.Close(closeCtx)
		}()

		for {
			notification, err := listener.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("changelog listener lost: %v", err)
				}
				return
			}

			ev, err := parseNotification([]byte(notification.Payload))
			if err != nil {
				log.Printf("dropping malformed changelog notification: %v", err)
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Close releases the query connection
func (s *PostgresSource) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// notificationPayload mirrors the JSON built by the trigger function
type notificationPayload struct {
	Op        string    `json:"op"`
	ID        int64     `json:"id"`
	Version   string    `json:"version"`
	Content   string    `json:"content"`
	Product   string    `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

func parseNotification(payload []byte) (types.ChangeEvent, error) {
	var p notificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.ChangeEvent{}, fmt.Errorf("decode payload: %w", err)
	}

	ev := types.ChangeEvent{
		Kind: types.ChangeKind(p.Op),
		Entry: types.ChangelogEntry{
			ID:        p.ID,
			Version:   p.Version,
			Content:   p.Content,
			Product:   p.Product,
			CreatedAt: p.CreatedAt,
		},
	}
	if err := ev.Validate(); err != nil {
		return types.ChangeEvent{}, err
	}
	return ev, nil
}
