package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"pelican-stonks/internal/persistence/record"
)

type doc struct {
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
}

func TestFindLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var out doc
	found, err := s.FindLatest(ctx, "c", &out)
	if err != nil || found {
		t.Fatalf("Expected empty collection, got found=%v err=%v", found, err)
	}

	for i, v := range []string{"b", "c", "a"} {
		ts := base.Add(time.Duration([]int{1, 2, 0}[i]) * time.Hour)
		if err := s.Insert(ctx, "c", doc{Timestamp: ts, Value: v}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Insert(ctx, "other", doc{Timestamp: base.Add(10 * time.Hour), Value: "x"}); err != nil {
		t.Fatal(err)
	}

	found, err = s.FindLatest(ctx, "c", &out)
	if err != nil || !found {
		t.Fatalf("FindLatest failed: found=%v err=%v", found, err)
	}
	if out.Value != "c" {
		t.Errorf("Expected newest document c, got %s", out.Value)
	}
	if s.Count("c") != 3 {
		t.Errorf("Expected 3 documents, got %d", s.Count("c"))
	}
}

func TestInsertRequiresTimestamp(t *testing.T) {
	err := New().Insert(context.Background(), "c", map[string]string{"value": "x"})
	if !errors.Is(err, record.ErrNoTimestamp) {
		t.Errorf("Expected ErrNoTimestamp, got %v", err)
	}
}
