// Package memstore is an in-process DocumentStore for tests and dry runs.
package memstore

import (
	"context"
	"sync"

	"pelican-stonks/internal/interfaces"
	"pelican-stonks/internal/persistence/record"
)

type Store struct {
	mu   sync.RWMutex
	docs map[string][]record.Record
}

var _ interfaces.DocumentStore = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string][]record.Record)}
}

func (s *Store) Insert(ctx context.Context, collection string, doc any) error {
	rec, err := record.New(collection, doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection] = append(s.docs[collection], rec)
	return nil
}

// FindLatest picks the newest timestamp; on a tie the later insert wins.
func (s *Store) FindLatest(ctx context.Context, collection string, out any) (bool, error) {
	s.mu.RLock()
	recs := s.docs[collection]
	var latest *record.Record
	for i := range recs {
		if latest == nil || !recs[i].Timestamp.Before(latest.Timestamp) {
			latest = &recs[i]
		}
	}
	s.mu.RUnlock()

	if latest == nil {
		return false, nil
	}
	return true, latest.Decode(out)
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
