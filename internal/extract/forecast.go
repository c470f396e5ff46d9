package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pelican-stonks/internal/logger"
	"pelican-stonks/internal/types"
)

// ForecastKeys are the required top-level forecast keys, in check order.
var ForecastKeys = []string{"weekly_forecast", "recommendation", "confidence_level", "reasoning", "detected_patterns"}

// ForecastPolicy controls forecast validation. With Strict unset a day-count
// mismatch is only logged.
type ForecastPolicy struct {
	Days   int
	After  time.Time
	Strict bool
}

// Forecast extracts and validates a technical forecast. Day ordering is
// always enforced; the first day must fall after policy.After when set.
func Forecast(ctx context.Context, raw types.RawResponse, policy ForecastPolicy) (types.ForecastResult, error) {
	payload, err := Extract(raw)
	if err != nil {
		return types.ForecastResult{}, err
	}
	if _, err := object(payload, ForecastKeys); err != nil {
		return types.ForecastResult{}, err
	}

	var fr types.ForecastResult
	if err := decode(payload, &fr); err != nil {
		return types.ForecastResult{}, err
	}
	fr.Recommendation = strings.ToLower(strings.TrimSpace(fr.Recommendation))
	if err := checkStruct(fr, ""); err != nil {
		return types.ForecastResult{}, err
	}

	if policy.Days > 0 && len(fr.WeeklyForecast) != policy.Days {
		if policy.Strict {
			return types.ForecastResult{}, &types.SchemaViolation{
				Key:    "weekly_forecast",
				Reason: fmt.Sprintf("must contain exactly %d days, got %d", policy.Days, len(fr.WeeklyForecast)),
			}
		}
		logger.Warn(ctx, "Forecast day count mismatch", "expected", policy.Days, "got", len(fr.WeeklyForecast))
	}

	if err := checkDays(fr.WeeklyForecast, policy.After); err != nil {
		return types.ForecastResult{}, err
	}
	return fr, nil
}

func checkDays(days []types.ForecastDay, after time.Time) error {
	var prev time.Time
	if !after.IsZero() {
		prev, _ = time.Parse(types.DateLayout, after.Format(types.DateLayout))
	}
	for i, d := range days {
		day, err := time.Parse(types.DateLayout, strings.TrimSpace(d.Day))
		if err != nil {
			return &types.SchemaViolation{Key: "weekly_forecast", Reason: fmt.Sprintf("day %d has invalid date %q", i, d.Day)}
		}
		if !prev.IsZero() && !day.After(prev) {
			return &types.SchemaViolation{
				Key:    "weekly_forecast",
				Reason: fmt.Sprintf("day %d (%s) is not after %s", i, d.Day, prev.Format(types.DateLayout)),
			}
		}
		prev = day
	}
	return nil
}
