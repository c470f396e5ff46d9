package prompt

import "pelican-stonks/internal/types"

// ForecastDays is the number of daily records a forecast must contain.
const ForecastDays = 30

// Template pairs a fixed instruction block with the literal response schema.
// Templates are shared and never rebuilt per call.
type Template struct {
	Instructions string
	Schema       string
}

var Fundamental = &Template{
	Instructions: analystPersona,
	Schema:       recommendationSchema,
}

var Forecast = &Template{
	Instructions: forecasterPersona,
	Schema:       forecastSchema,
}

const analystPersona = `You are a professional equity research analyst specializing in fundamental analysis and market sentiment.

You are given structured JSON data for several companies, including:
- 4 years of financial statements (income, balance sheet)
- Trailing P/E and P/B ratios
- Historical P/E ratios
- Recent news articles

For EACH company:
1. Review Revenue, Net Income, Debt, P/E, P/B trends, and recent news sentiment.
2. Identify exactly one PRO and one CON (short ~25 words each).
3. Weigh the evidence and:
    - Make a recommendation: BUY / WAIT / AVOID
    - Give a confidence level: High / Medium / Low
4. Write a brief overall summary (30-50 words) that justifies the recommendation considering both PRO and CON.
5. Return a structured JSON object with:
    - ticker (string)
    - recommendation (BUY, WAIT, AVOID)
    - confidence (High, Medium, Low)
    - pro (string)
    - con (string)
    - summary (string)

Respond STRICTLY in JSON format using the provided function schema. Do not add any extra text.`

const recommendationSchema = `{
  "recommendations": [
    {
      "ticker": "TICKER_SYMBOL",
      "recommendation": "BUY/WAIT/AVOID",
      "confidence": "High/Medium/Low",
      "pro": "One key strength...",
      "con": "One key concern...",
      "summary": "Overall assessment that considers both pro and con..."
    },
    ...
  ]
}`

const forecasterPersona = `You are a stock market expert.`

const forecastSchema = `{
  "weekly_forecast": [
    {
      "day": "YYYY-MM-DD",
      "open": 0.0,
      "high": 0.0,
      "low": 0.0,
      "close": 0.0,
      "volume": 0,
      "trade_count": 0,
      "vwap": 0.0
    }
  ],
  "recommendation": "buy/sell/hold",
  "confidence_level": 0,
  "reasoning": "Explanation for the recommendation",
  "detected_patterns": [
    {
      "pattern_name": "Name of the pattern",
      "supporting_points": [
        {
          "type": "high/low",
          "day": "YYYY-MM-DD",
          "high": 0.0,
          "low": 0.0
        }
      ]
    }
  ]
}`

// ReturnRecommendationsTool is the function tool offered to providers that
// support tool calling. Its arguments follow the recommendation schema.
var ReturnRecommendationsTool = &types.ToolSpec{
	Name:        "return_recommendations",
	Description: "Return stock recommendations for long-term investing",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"ticker":         map[string]any{"type": "string"},
						"recommendation": map[string]any{"type": "string", "enum": []string{"BUY", "WAIT", "AVOID"}},
						"confidence":     map[string]any{"type": "string", "enum": []string{"High", "Medium", "Low"}},
						"pro":            map[string]any{"type": "string"},
						"con":            map[string]any{"type": "string"},
						"summary":        map[string]any{"type": "string"},
					},
					"required": []string{"ticker", "recommendation", "confidence", "pro", "con", "summary"},
				},
			},
		},
		"required": []string{"recommendations"},
	},
}
