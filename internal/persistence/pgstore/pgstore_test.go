package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs only against a live server, e.g.
// POSTGRES_TEST_DSN="user=postgres dbname=pelican sslmode=disable"
func TestRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close(ctx)

	collection := "test_" + uuid.NewString()
	defer s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1`, collection)

	type doc struct {
		Timestamp time.Time `json:"timestamp"`
		Value     string    `json:"value"`
	}
	now := time.Now().UTC()
	for i, v := range []string{"new", "old"} {
		if err := s.Insert(ctx, collection, doc{Timestamp: now.Add(-time.Duration(i) * time.Minute), Value: v}); err != nil {
			t.Fatal(err)
		}
	}

	var out doc
	found, err := s.FindLatest(ctx, collection, &out)
	if err != nil || !found {
		t.Fatalf("FindLatest failed: found=%v err=%v", found, err)
	}
	if out.Value != "new" {
		t.Errorf("Expected newest document, got %+v", out)
	}
}
