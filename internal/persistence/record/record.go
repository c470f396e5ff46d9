// Package record encodes documents for the stores that keep them as JSON.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoTimestamp is returned for documents without a "timestamp" field.
var ErrNoTimestamp = errors.New(`document has no "timestamp" field`)

// Record is a stored document with the fields stores sort and filter on.
type Record struct {
	Collection string
	Timestamp  time.Time
	Body       []byte
}

// New serializes doc and lifts its "timestamp" field.
func New(collection string, doc any) (Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode document: %w", err)
	}

	var head struct {
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return Record{}, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if head.Timestamp == nil {
		return Record{}, ErrNoTimestamp
	}

	return Record{Collection: collection, Timestamp: head.Timestamp.UTC(), Body: body}, nil
}

// Decode unmarshals the stored body into out.
func (r Record) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
