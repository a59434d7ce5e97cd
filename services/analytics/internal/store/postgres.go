package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Postgres-backed implementation.
// Each content id maps to one row holding the record as jsonb; WithContent
// takes a row lock so concurrent events on the same clip serialize.
type PostgresStore struct {
	db *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS clip_analytics (
    content_id text PRIMARY KEY,
    record     jsonb NOT NULL
)`

// NewPostgresStore ensures the schema exists and returns the store.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, pgSchema); err != nil {
		return nil, fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// Ping reports backend reachability; used by /readyz.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]ContentRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT content_id, record FROM clip_analytics`)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	data := make(map[string]ContentRecord)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		data[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, data map[string]ContentRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE clip_analytics`); err != nil {
		return fmt.Errorf("%w: truncate: %v", ErrUnavailable, err)
	}
	for id, rec := range data {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: marshal %s: %v", ErrUnavailable, id, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO clip_analytics (content_id, record) VALUES ($1, $2)`, id, raw); err != nil {
			return fmt.Errorf("%w: insert %s: %v", ErrUnavailable, id, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) WithContent(ctx context.Context, id string, mutate Mutator) (ContentRecord, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ContentRecord{}, fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SELECT ... FOR UPDATE cannot lock a row that does not exist yet, so
	// two concurrent first events for a fresh clip would both read "no row"
	// and the later commit would overwrite the earlier one. Materialize the
	// zero record first: the unique index makes concurrent first events
	// queue up here, and the row lock below then serializes the rest.
	if _, err := tx.Exec(ctx, `
INSERT INTO clip_analytics (content_id, record) VALUES ($1, $2)
ON CONFLICT (content_id) DO NOTHING`, id, []byte(`{"views":0,"users":{}}`)); err != nil {
		return ContentRecord{}, fmt.Errorf("%w: insert zero record: %v", ErrUnavailable, err)
	}

	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT record FROM clip_analytics WHERE content_id = $1 FOR UPDATE`, id).Scan(&raw); err != nil {
		return ContentRecord{}, fmt.Errorf("%w: select for update: %v", ErrUnavailable, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return ContentRecord{}, err
	}

	rec = mutate(rec)
	if rec.Users == nil {
		rec.Users = make(map[string]UserProgress)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		return ContentRecord{}, fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE clip_analytics SET record = $2 WHERE content_id = $1`, id, out); err != nil {
		return ContentRecord{}, fmt.Errorf("%w: update: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return ContentRecord{}, fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresStore) Content(ctx context.Context, id string) (ContentRecord, bool, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT record FROM clip_analytics WHERE content_id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ContentRecord{}, false, nil
	}
	if err != nil {
		return ContentRecord{}, false, fmt.Errorf("%w: select: %v", ErrUnavailable, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return ContentRecord{}, false, err
	}
	return rec, true, nil
}

func decodeRecord(raw []byte) (ContentRecord, error) {
	rec := NewContentRecord()
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ContentRecord{}, fmt.Errorf("%w: corrupt record: %v", ErrUnavailable, err)
	}
	if rec.Users == nil {
		rec.Users = make(map[string]UserProgress)
	}
	return rec, nil
}
