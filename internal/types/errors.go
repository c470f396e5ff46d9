package types

import (
	"errors"
	"fmt"
	"time"
)

// DataFetchError marks a per-ticker collection failure. The ticker is
// dropped from the batch and the run continues.
type DataFetchError struct {
	Ticker string
	Source string
	Err    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Source, e.Ticker, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// RateLimitError is returned by providers when the upstream signals quota
// or resource exhaustion. RetryAfter is zero when no delay was suggested.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited (retry in %s): %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// MalformedOutput means no extraction strategy produced parseable JSON.
type MalformedOutput struct {
	Err error
}

func (e *MalformedOutput) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutput) Unwrap() error { return e.Err }

// SchemaViolation names the first required key that is missing or invalid.
type SchemaViolation struct {
	Key    string
	Reason string
}

func (e *SchemaViolation) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("schema violation: missing '%s' key in response", e.Key)
	}
	return fmt.Sprintf("schema violation: '%s' %s", e.Key, e.Reason)
}

// ExhaustedAllModelsError is returned when every candidate model used up its
// attempts without a valid response.
type ExhaustedAllModelsError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedAllModelsError) Error() string {
	return fmt.Sprintf("exhausted all models after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedAllModelsError) Unwrap() error { return e.Last }

// IsMalformed reports whether err is an output-shape failure that should
// move the orchestrator on to the next model.
func IsMalformed(err error) bool {
	var mo *MalformedOutput
	var sv *SchemaViolation
	return errors.As(err, &mo) || errors.As(err, &sv)
}
