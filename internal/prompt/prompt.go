// Package prompt turns an analysis batch or a bar series into the single
// request string sent to the model.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"pelican-stonks/internal/types"
)

// BuildFundamental renders the batch with the template's instructions and schema.
// Tickers are serialized in sorted order.
func BuildFundamental(batch map[string]types.AnalysisRequest, t *Template) (string, error) {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize dataset: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(t.Instructions)
	sb.WriteString("\n\nAnalyze the following JSON data for each stock individually:\n\n")
	sb.Write(data)
	sb.WriteString("\n\nRemember to return your analysis in the following JSON structure:\n")
	sb.WriteString(t.Schema)
	sb.WriteString("\n")
	return sb.String(), nil
}

// BuildForecast renders the bar table, indicator context and the forecast
// schema with its day-count constraint.
func BuildForecast(symbol string, bars []types.Bar, ind types.Indicators, t *Template) (string, error) {
	indJSON, err := json.Marshal(ind)
	if err != nil {
		return "", fmt.Errorf("failed to serialize indicators: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(t.Instructions)
	fmt.Fprintf(&sb, "\nHere is recent stock data for %s:\n\n", symbol)
	writeBarTable(&sb, bars)
	fmt.Fprintf(&sb, "\nIndicator context (latest values): %s\n", indJSON)
	fmt.Fprintf(&sb, "\nBased on this trend, predict the stock movement for the next %d days and also provide a reasoning "+
		"and trading patterns (the beginning and end date of the detected pattern) that supports your prediction.\n", ForecastDays)
	sb.WriteString("Provide your prediction and the reasons in the following JSON structure:\n\n")
	sb.WriteString(t.Schema)
	sb.WriteString("\n\n**CRITICAL REQUIREMENTS:**\n")
	fmt.Fprintf(&sb, "- Your response MUST include EXACTLY %d days in the weekly_forecast array - no more, no less.\n", ForecastDays)
	sb.WriteString("- Ensure all numbers have the correct type (float for prices, int for volume and trade_count).\n")
	sb.WriteString("- Only output valid JSON with no additional text outside the JSON.\n")
	sb.WriteString("- Your response should start from the next trading day after the last day in the provided data.\n")
	return sb.String(), nil
}

func writeBarTable(sb *strings.Builder, bars []types.Bar) {
	fmt.Fprintf(sb, "%-10s %10s %10s %10s %10s %12s %11s %10s\n",
		"timestamp", "open", "high", "low", "close", "volume", "trade_count", "vwap")
	for _, b := range bars {
		fmt.Fprintf(sb, "%-10s %10.2f %10.2f %10.2f %10.2f %12d %11d %10.4f\n",
			b.Timestamp.Format(types.DateLayout), b.Open, b.High, b.Low, b.Close, b.Volume, b.TradeCount, b.VWAP)
	}
}
