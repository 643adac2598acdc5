package models

// ScreenedStock is a row of the undervalued screener.
type ScreenedStock struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	CurrentPrice     float64  `json:"currentPrice"`
	TargetPrice      *float64 `json:"targetPrice,omitempty"`
	Upside           *float64 `json:"upside,omitempty"`
	PERatio          *float64 `json:"peRatio,omitempty"`
	PEGRatio         *float64 `json:"pegRatio,omitempty"`
	PBRatio          *float64 `json:"pbRatio,omitempty"`
	MarketCap        float64  `json:"marketCap"`
	Volume           float64  `json:"volume"`
	AverageVolume    float64  `json:"averageVolume"`
	Change           float64  `json:"change"`
	ChangePercent    float64  `json:"changePercent"`
	FiftyTwoWeekLow  float64  `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh float64  `json:"fiftyTwoWeekHigh"`
	DividendYield    *float64 `json:"dividendYield,omitempty"`
	Reasons          []string `json:"reasons"`
	Sector           string   `json:"sector"`
	Industry         string   `json:"industry"`
}

// ScreenerResponse wraps a screened list.
type ScreenerResponse struct {
	Category string          `json:"category"`
	Stocks   []ScreenedStock `json:"stocks"`
	Count    int             `json:"count"`
}

// ScreenerCategory names one of the upstream screener lists.
type ScreenerCategory string

const (
	CategoryUndervalued ScreenerCategory = "undervalued"
	CategoryGainers     ScreenerCategory = "gainers"
	CategoryLosers      ScreenerCategory = "losers"
)

// ParseScreenerCategory maps a path segment to a known category.
func ParseScreenerCategory(s string) (ScreenerCategory, bool) {
	switch ScreenerCategory(s) {
	case CategoryUndervalued, CategoryGainers, CategoryLosers:
		return ScreenerCategory(s), true
	}
	return "", false
}
