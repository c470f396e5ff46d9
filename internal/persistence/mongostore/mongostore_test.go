package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs only against a live server: MONGO_TEST_URI=mongodb://localhost:27017
func TestRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()

	s, err := Connect(ctx, uri, "pelican_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer func() {
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	}()

	type doc struct {
		Timestamp time.Time `bson:"timestamp"`
		Value     string    `bson:"value"`
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, v := range []string{"old", "new"} {
		if err := s.Insert(ctx, "c", doc{Timestamp: now.Add(time.Duration(i) * time.Minute), Value: v}); err != nil {
			t.Fatal(err)
		}
	}

	var out map[string]any
	found, err := s.FindLatest(ctx, "c", &out)
	if err != nil || !found {
		t.Fatalf("FindLatest failed: found=%v err=%v", found, err)
	}
	if out["value"] != "new" {
		t.Errorf("Expected newest document, got %v", out)
	}

	found, err = s.FindLatest(ctx, "empty", &out)
	if err != nil || found {
		t.Errorf("Expected empty collection, got found=%v err=%v", found, err)
	}
}
