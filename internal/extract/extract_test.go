package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"pelican-stonks/internal/types"
)

const batchJSON = `{"recommendations":[{"ticker":"AAPL","recommendation":"BUY","confidence":"High","pro":"Strong cash flow","con":"Premium valuation","summary":"Quality compounder."}]}`

func TestFencedTextAndToolCallExtractIdentically(t *testing.T) {
	fenced := types.RawResponse{Text: "Here you go:\n```json\n" + batchJSON + "\n```\nThanks"}
	tool := types.RawResponse{ToolArguments: batchJSON}

	a, err := Recommendations(fenced)
	if err != nil {
		t.Fatalf("fenced: unexpected error %v", err)
	}
	b, err := Recommendations(tool)
	if err != nil {
		t.Fatalf("tool: unexpected error %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}
	if len(a) != 1 || a[0].Ticker != "AAPL" || a[0].Recommendation != "BUY" {
		t.Errorf("Unexpected result %+v", a)
	}
}

func TestStrategyOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  types.RawResponse
		want string
	}{
		{"tool call wins over text", types.RawResponse{ToolArguments: `{"a":1}`, Text: "```json\n{\"a\":2}\n```"}, `{"a":1}`},
		{"json fence preferred", types.RawResponse{Text: "```\n{\"a\":3}\n```\n```json\n{\"a\":4}\n```"}, `{"a":4}`},
		{"first fence fallback", types.RawResponse{Text: "```python\n{\"a\":5}\n```"}, `{"a":5}`},
		{"whole text", types.RawResponse{Text: "  {\"a\":6}  "}, `{"a":6}`},
		{"bad tool call falls through", types.RawResponse{ToolArguments: `{"a":`, Text: `{"a":7}`}, `{"a":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMalformedOutput(t *testing.T) {
	_, err := Recommendations(types.RawResponse{Text: "I think you should buy Apple."})
	var mo *types.MalformedOutput
	if !errors.As(err, &mo) {
		t.Fatalf("Expected MalformedOutput, got %v", err)
	}
	if !types.IsMalformed(err) {
		t.Error("Expected IsMalformed to be true")
	}
}

func TestSchemaViolationNamesFirstMissingKey(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		key     string
	}{
		{"missing wrapper", `{"recs":[]}`, "recommendations"},
		{"missing confidence", `{"recommendations":[{"ticker":"AAPL","recommendation":"BUY","pro":"p","con":"c"}]}`, "confidence"},
		{"bad enum", `{"recommendations":[{"ticker":"AAPL","recommendation":"SELL","confidence":"High","pro":"p","con":"c","summary":"s"}]}`, "recommendation"},
		{"wrong type", `{"recommendations":[{"ticker":"AAPL","recommendation":"BUY","confidence":"High","pro":1,"con":"c","summary":"s"}]}`, "pro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recommendations(types.RawResponse{Text: tt.payload})
			var sv *types.SchemaViolation
			if !errors.As(err, &sv) {
				t.Fatalf("Expected SchemaViolation, got %v", err)
			}
			if !strings.HasSuffix(sv.Key, tt.key) {
				t.Errorf("Expected key %q, got %q", tt.key, sv.Key)
			}
		})
	}
}

func TestRecommendationNormalization(t *testing.T) {
	recs, err := Recommendations(types.RawResponse{Text: `{"recommendations":[{"ticker":"aapl","recommendation":"wait","confidence":"medium","pro":"p","con":"c","summary":"s"}]}`})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if recs[0].Ticker != "AAPL" || recs[0].Recommendation != "WAIT" || recs[0].Confidence != "Medium" {
		t.Errorf("Expected normalized values, got %+v", recs[0])
	}
}

func forecastPayload(start time.Time, days int) string {
	var sb strings.Builder
	sb.WriteString(`{"weekly_forecast":[`)
	for i := 0; i < days; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"day":"%s","open":1.0,"high":2.0,"low":0.5,"close":1.5,"volume":1000,"trade_count":10,"vwap":1.2}`,
			start.AddDate(0, 0, i).Format(types.DateLayout))
	}
	sb.WriteString(`],"recommendation":"Buy","confidence_level":72,"reasoning":"Higher lows.",`)
	sb.WriteString(`"detected_patterns":[{"pattern_name":"Ascending triangle","supporting_points":[{"type":"low","day":"2025-01-02","high":0,"low":1.1}]}]}`)
	return sb.String()
}

func TestForecastExactlyThirtyIncreasingDays(t *testing.T) {
	last := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	raw := types.RawResponse{Text: "```json\n" + forecastPayload(last.AddDate(0, 0, 1), 30) + "\n```"}

	fr, err := Forecast(context.Background(), raw, ForecastPolicy{Days: 30, After: last, Strict: true})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(fr.WeeklyForecast) != 30 {
		t.Fatalf("Expected 30 days, got %d", len(fr.WeeklyForecast))
	}
	for i := 1; i < len(fr.WeeklyForecast); i++ {
		if fr.WeeklyForecast[i].Day <= fr.WeeklyForecast[i-1].Day {
			t.Errorf("Expected increasing dates at %d", i)
		}
	}
	if fr.Recommendation != "buy" {
		t.Errorf("Expected normalized recommendation buy, got %s", fr.Recommendation)
	}
	if len(fr.DetectedPatterns) != 1 || fr.DetectedPatterns[0].PatternName != "Ascending triangle" {
		t.Errorf("Unexpected patterns %+v", fr.DetectedPatterns)
	}
}

func TestForecastCountMismatch(t *testing.T) {
	last := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	raw := types.RawResponse{Text: forecastPayload(last.AddDate(0, 0, 1), 7)}

	_, err := Forecast(context.Background(), raw, ForecastPolicy{Days: 30, After: last, Strict: true})
	var sv *types.SchemaViolation
	if !errors.As(err, &sv) || sv.Key != "weekly_forecast" {
		t.Fatalf("Expected weekly_forecast SchemaViolation, got %v", err)
	}

	fr, err := Forecast(context.Background(), raw, ForecastPolicy{Days: 30, After: last})
	if err != nil {
		t.Fatalf("Expected soft mismatch to pass, got %v", err)
	}
	if len(fr.WeeklyForecast) != 7 {
		t.Errorf("Expected 7 days, got %d", len(fr.WeeklyForecast))
	}
}

func TestForecastRejectsBadDates(t *testing.T) {
	last := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	// Starts on the last input day instead of after it.
	_, err := Forecast(context.Background(), types.RawResponse{Text: forecastPayload(last, 30)}, ForecastPolicy{Days: 30, After: last, Strict: true})
	if err == nil {
		t.Error("Expected error when forecast starts on the last input date")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(forecastPayload(last.AddDate(0, 0, 1), 30)), &obj); err != nil {
		t.Fatal(err)
	}
	days := obj["weekly_forecast"].([]any)
	days[5], days[6] = days[6], days[5]
	b, _ := json.Marshal(obj)

	_, err = Forecast(context.Background(), types.RawResponse{Text: string(b)}, ForecastPolicy{Days: 30, After: last, Strict: true})
	var sv *types.SchemaViolation
	if !errors.As(err, &sv) {
		t.Errorf("Expected SchemaViolation for out-of-order days, got %v", err)
	}
}

func TestForecastMissingKey(t *testing.T) {
	_, err := Forecast(context.Background(), types.RawResponse{Text: `{"weekly_forecast":[],"recommendation":"hold","confidence_level":5,"reasoning":"r"}`}, ForecastPolicy{})
	var sv *types.SchemaViolation
	if !errors.As(err, &sv) || sv.Key != "detected_patterns" {
		t.Fatalf("Expected missing detected_patterns, got %v", err)
	}
}
