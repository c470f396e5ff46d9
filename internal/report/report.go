// Package report writes a CSV summary of each daily update.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"pelican-stonks/internal/types"
)

var headers = []string{"run_id", "stage", "ticker", "status", "recommendation", "confidence", "last_close", "detail"}

// Writer writes reports under Dir, one file per day.
type Writer struct {
	Dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "logs/runs"
	}
	return &Writer{Dir: dir}
}

// PathFor returns <dir>/<date>.csv for the day t falls on.
func (w *Writer) PathFor(t time.Time) string {
	return filepath.Join(w.Dir, t.Format(types.DateLayout)+".csv")
}

// Write appends the report's rows to the file for the run's start date,
// writing headers when the file is new.
func (w *Writer) Write(r *types.RunReport) (string, error) {
	outPath := w.PathFor(r.Started)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	_, statErr := os.Stat(outPath)
	isNew := os.IsNotExist(statErr)

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	defer out.Close()

	cw := csv.NewWriter(out)
	if isNew {
		if err := cw.Write(headers); err != nil {
			return "", err
		}
	}
	for _, row := range Rows(r) {
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outPath, nil
}

// Rows flattens a report: recommendations, forecasts, skipped tickers, then
// stage errors. Tickers are sorted within each group.
func Rows(r *types.RunReport) [][]string {
	var rows [][]string

	for _, t := range sortedKeys(r.Fundamental) {
		rec := r.Fundamental[t]
		rows = append(rows, []string{r.RunID, types.StageFundamental, t, "ok", rec.Recommendation, rec.Confidence, "", rec.Summary})
	}
	for _, t := range sortedKeys(r.Technical) {
		fr := r.Technical[t]
		lastClose := ""
		if n := len(fr.WeeklyForecast); n > 0 {
			lastClose = fmt.Sprintf("%.2f", fr.WeeklyForecast[n-1].Close)
		}
		rows = append(rows, []string{r.RunID, types.StageTechnical, t, "ok", fr.Recommendation, strconv.Itoa(fr.ConfidenceLevel), lastClose, fr.Reasoning})
	}

	skipped := append([]types.SkippedTicker(nil), r.Skipped...)
	sort.SliceStable(skipped, func(i, j int) bool {
		if skipped[i].Stage != skipped[j].Stage {
			return skipped[i].Stage < skipped[j].Stage
		}
		return skipped[i].Ticker < skipped[j].Ticker
	})
	for _, s := range skipped {
		rows = append(rows, []string{r.RunID, s.Stage, s.Ticker, "skipped", "", "", "", s.Reason})
	}

	for _, stage := range sortedKeys(r.StageErrors) {
		rows = append(rows, []string{r.RunID, stage, "", "failed", "", "", "", r.StageErrors[stage]})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
