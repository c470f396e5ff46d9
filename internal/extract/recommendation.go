package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"pelican-stonks/internal/types"
)

// RecommendationKeys are the required keys of one recommendation, in check order.
var RecommendationKeys = []string{"ticker", "recommendation", "confidence", "pro", "con", "summary"}

// BatchKey wraps the recommendation list in fundamental responses.
const BatchKey = "recommendations"

// Recommendations extracts and validates a batch response.
func Recommendations(raw types.RawResponse) ([]types.Recommendation, error) {
	payload, err := Extract(raw)
	if err != nil {
		return nil, err
	}
	obj, err := object(payload, []string{BatchKey})
	if err != nil {
		return nil, err
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(obj[BatchKey], &items); err != nil {
		return nil, &types.SchemaViolation{Key: BatchKey, Reason: "must be an array of objects"}
	}

	recs := make([]types.Recommendation, 0, len(items))
	for i, item := range items {
		where := fmt.Sprintf("%s[%d]", BatchKey, i)
		if err := requireKeys(item, RecommendationKeys, where); err != nil {
			return nil, err
		}
		b, _ := json.Marshal(item)
		var rec types.Recommendation
		if err := decode(b, &rec); err != nil {
			return nil, err
		}
		normalizeRecommendation(&rec)
		if err := checkStruct(rec, where); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func normalizeRecommendation(r *types.Recommendation) {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.Recommendation = strings.ToUpper(strings.TrimSpace(r.Recommendation))
	c := strings.ToLower(strings.TrimSpace(r.Confidence))
	if c != "" {
		r.Confidence = strings.ToUpper(c[:1]) + c[1:]
	}
}
