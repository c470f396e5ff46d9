package types

import "time"

// Canonical statement line names. Sources map their own field names onto these.
const (
	LineTotalRevenue     = "TotalRevenue"
	LineGrossProfit      = "GrossProfit"
	LineOperatingIncome  = "OperatingIncome"
	LineNetIncome        = "NetIncome"
	LineTotalAssets      = "TotalAssets"
	LineTotalLiabilities = "TotalLiabilities"
	LineTotalEquity      = "TotalEquity"
	LineTotalDebt        = "TotalDebt"
)

// DateLayout is the ISO date format used for period keys and forecast days.
const DateLayout = "2006-01-02"

// Period is one fiscal period of a statement. Absent lines are absent keys.
type Period struct {
	EndDate string             `json:"endDate" bson:"endDate"`
	Lines   map[string]float64 `json:"lines" bson:"lines"`
}

// Line returns the value of a statement line and whether it was reported.
func (p Period) Line(name string) (float64, bool) {
	v, ok := p.Lines[name]
	return v, ok
}

// RawFinancials holds the statement periods of a ticker, most recent first.
type RawFinancials struct {
	Ticker  string   `json:"ticker" bson:"ticker"`
	Income  []Period `json:"income" bson:"income"`
	Balance []Period `json:"balance" bson:"balance"`
}

type SummaryRatios struct {
	TrailingPE        *float64 `json:"trailingPE" bson:"trailingPE"`
	PriceToBook       *float64 `json:"priceToBook" bson:"priceToBook"`
	SharesOutstanding *float64 `json:"sharesOutstanding" bson:"sharesOutstanding"`
}

type Margins struct {
	GrossMargin     *float64 `json:"grossMargin" bson:"grossMargin"`
	OperatingMargin *float64 `json:"operatingMargin" bson:"operatingMargin"`
	NetMargin       *float64 `json:"netMargin" bson:"netMargin"`
}

// DerivedMetrics maps are keyed by period end date. A nil pointer serializes as null.
type DerivedMetrics struct {
	BookValue    map[string]*float64 `json:"bookValueHistory" bson:"bookValueHistory"`
	Margins      map[string]Margins  `json:"margins" bson:"margins"`
	DebtToEquity map[string]*float64 `json:"debtToEquityHistory" bson:"debtToEquityHistory"`
	HistoricalPE map[string]*float64 `json:"historicalPE" bson:"historicalPE"`
	TrailingPE   *float64            `json:"trailingPE" bson:"trailingPE"`
	CurrentPBV   *float64            `json:"currentPBV" bson:"currentPBV"`
}

type Fundamentals struct {
	RawFinancials  `bson:",inline"`
	DerivedMetrics `bson:",inline"`
}

type NewsItem struct {
	Headline string `json:"headline" bson:"headline"`
	Summary  string `json:"summary" bson:"summary"`
	URL      string `json:"url" bson:"url"`
}

// AnalysisRequest is the per-ticker entry of a fundamental batch.
type AnalysisRequest struct {
	Fundamentals Fundamentals `json:"fundamentals" bson:"fundamentals"`
	News         []NewsItem   `json:"news" bson:"news"`
}

type Recommendation struct {
	Ticker         string `json:"ticker" bson:"ticker" validate:"required"`
	Recommendation string `json:"recommendation" bson:"recommendation" validate:"oneof=BUY WAIT AVOID"`
	Confidence     string `json:"confidence" bson:"confidence" validate:"oneof=High Medium Low"`
	Pro            string `json:"pro" bson:"pro"`
	Con            string `json:"con" bson:"con"`
	Summary        string `json:"summary" bson:"summary"`
}

type ForecastDay struct {
	Day        string  `json:"day" bson:"day"`
	Open       float64 `json:"open" bson:"open"`
	High       float64 `json:"high" bson:"high"`
	Low        float64 `json:"low" bson:"low"`
	Close      float64 `json:"close" bson:"close"`
	Volume     int64   `json:"volume" bson:"volume"`
	TradeCount int64   `json:"trade_count" bson:"trade_count"`
	VWAP       float64 `json:"vwap" bson:"vwap"`
}

type SupportingPoint struct {
	Type string  `json:"type" bson:"type"`
	Day  string  `json:"day" bson:"day"`
	High float64 `json:"high" bson:"high"`
	Low  float64 `json:"low" bson:"low"`
}

type Pattern struct {
	PatternName      string            `json:"pattern_name" bson:"pattern_name"`
	SupportingPoints []SupportingPoint `json:"supporting_points" bson:"supporting_points"`
}

type ForecastResult struct {
	WeeklyForecast   []ForecastDay `json:"weekly_forecast" bson:"weekly_forecast"`
	Recommendation   string        `json:"recommendation" bson:"recommendation" validate:"oneof=buy sell hold"`
	ConfidenceLevel  int           `json:"confidence_level" bson:"confidence_level" validate:"min=0,max=100"`
	Reasoning        string        `json:"reasoning" bson:"reasoning"`
	DetectedPatterns []Pattern     `json:"detected_patterns" bson:"detected_patterns"`
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Symbol     string    `json:"symbol" bson:"symbol"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Open       float64   `json:"open" bson:"open"`
	High       float64   `json:"high" bson:"high"`
	Low        float64   `json:"low" bson:"low"`
	Close      float64   `json:"close" bson:"close"`
	Volume     int64     `json:"volume" bson:"volume"`
	TradeCount int64     `json:"trade_count" bson:"trade_count"`
	VWAP       float64   `json:"vwap" bson:"vwap"`
}

// Indicators summarizes a bar series for the forecast prompt. Values that
// cannot be computed from the available history are nil.
type Indicators struct {
	SMA     map[int]*float64 `json:"sma"`
	RSI     *float64         `json:"rsi"`
	BBUpper *float64         `json:"bollinger_upper"`
	BBMid   *float64         `json:"bollinger_middle"`
	BBLower *float64         `json:"bollinger_lower"`
	ATR     *float64         `json:"atr"`
}
