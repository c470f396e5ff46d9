// Package badgerstore keeps documents in an embedded Badger database via
// badgerhold, for single-host deployments without a database server.
package badgerstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/persistence/record"
)

// entry is the badgerhold value. Nanos carries the timestamp as an int so
// ordering does not depend on time.Time comparison.
type entry struct {
	ID         string
	Collection string `badgerhold:"index"`
	Timestamp  time.Time
	Nanos      int64
	Body       []byte
}

type Store struct {
	store *badgerhold.Store
	path  string
}

var _ interfaces.DocumentStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug(context.Background(), "Badger database initialized", "path", path)
	return &Store{store: store, path: path}, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) error {
	rec, err := record.New(collection, doc)
	if err != nil {
		return err
	}

	e := entry{
		ID:         uuid.NewString(),
		Collection: collection,
		Timestamp:  rec.Timestamp,
		Nanos:      rec.Timestamp.UnixNano(),
		Body:       rec.Body,
	}
	if err := s.store.Insert(e.ID, e); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

func (s *Store) FindLatest(ctx context.Context, collection string, out any) (bool, error) {
	var entries []entry
	query := badgerhold.Where("Collection").Eq(collection).SortBy("Nanos").Reverse().Limit(1)
	if err := s.store.Find(&entries, query); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if len(entries) == 0 {
		return false, nil
	}

	rec := record.Record{Collection: collection, Timestamp: entries[0].Timestamp, Body: entries[0].Body}
	return true, rec.Decode(out)
}

func (s *Store) Close(ctx context.Context) error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
