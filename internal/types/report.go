package types

import "time"

// Run stages recorded in a RunReport.
const (
	StageFundamental = "fundamental"
	StageTechnical   = "technical"
)

// SkippedTicker records a ticker dropped from a stage and why.
type SkippedTicker struct {
	Stage  string
	Ticker string
	Reason string
}

// RunReport summarizes one daily update.
type RunReport struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Fundamental map[string]Recommendation
	Technical   map[string]ForecastResult
	Skipped     []SkippedTicker
	// StageErrors holds the batch-fatal error of a stage, keyed by stage.
	StageErrors map[string]string
}

// NewRunReport returns a report with its maps allocated.
func NewRunReport(runID string, started time.Time) *RunReport {
	return &RunReport{
		RunID:       runID,
		Started:     started,
		Fundamental: map[string]Recommendation{},
		Technical:   map[string]ForecastResult{},
		StageErrors: map[string]string{},
	}
}

func (r *RunReport) Skip(stage, ticker string, err error) {
	r.Skipped = append(r.Skipped, SkippedTicker{Stage: stage, Ticker: ticker, Reason: err.Error()})
}
