package models

// StockInfo is the company profile and quote returned by /api/stocks/info.
type StockInfo struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Currency         string   `json:"currency"`
	Exchange         string   `json:"exchange"`
	Sector           string   `json:"sector"`
	Industry         string   `json:"industry"`
	MarketCap        float64  `json:"marketCap"`
	Website          string   `json:"website"`
	Description      string   `json:"description"`
	Employees        int      `json:"employees"`
	Country          string   `json:"country"`
	CurrentPrice     float64  `json:"currentPrice"`
	PreviousClose    float64  `json:"previousClose"`
	Open             float64  `json:"open"`
	DayLow           float64  `json:"dayLow"`
	DayHigh          float64  `json:"dayHigh"`
	FiftyTwoWeekLow  float64  `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh float64  `json:"fiftyTwoWeekHigh"`
	Volume           float64  `json:"volume"`
	AverageVolume    float64  `json:"averageVolume"`
	DividendYield    *float64 `json:"dividendYield,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	TrailingPE       *float64 `json:"trailingPE,omitempty"`
	ForwardPE        *float64 `json:"forwardPE,omitempty"`
}

// HistoricalData is one OHLCV bar.
type HistoricalData struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// StockHistory is the payload returned by /api/stocks/history.
type StockHistory struct {
	Symbol string           `json:"symbol"`
	Period string           `json:"period"`
	Data   []HistoricalData `json:"data"`
}

// StockQuote is the payload returned by /api/stocks/quote.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	PreviousClose float64 `json:"previousClose"`
	Open          float64 `json:"open"`
	DayLow        float64 `json:"dayLow"`
	DayHigh       float64 `json:"dayHigh"`
	Volume        float64 `json:"volume"`
	MarketCap     float64 `json:"marketCap"`
	Timestamp     string  `json:"timestamp"`
}

// SearchResult is a single symbol match.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Region   string `json:"region,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// StockSearch is the payload returned by /api/stocks/search.
type StockSearch struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// HistoryPeriods lists the period codes accepted by the history endpoint.
var HistoryPeriods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidPeriod reports whether p is a known history period code.
func ValidPeriod(p string) bool {
	for _, v := range HistoryPeriods {
		if v == p {
			return true
		}
	}
	return false
}
