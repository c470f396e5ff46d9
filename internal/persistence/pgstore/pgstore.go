// Package pgstore keeps documents as JSONB rows in a single PostgreSQL table.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/persistence/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         BIGSERIAL PRIMARY KEY,
	collection TEXT        NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	doc        JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_collection_ts ON documents (collection, ts DESC);`

const (
	insertSQL = `INSERT INTO documents (collection, ts, doc) VALUES ($1, $2, $3)`
	latestSQL = `SELECT doc FROM documents WHERE collection = $1 ORDER BY ts DESC, id DESC LIMIT 1`
)

type Store struct {
	db *sql.DB
}

var _ interfaces.DocumentStore = (*Store)(nil)

// Open connects with a lib/pq DSN and creates the documents table if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) error {
	rec, err := record.New(collection, doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertSQL, collection, rec.Timestamp, rec.Body); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

func (s *Store) FindLatest(ctx context.Context, collection string, out any) (bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, latestSQL, collection).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return true, record.Record{Collection: collection, Body: body}.Decode(out)
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
