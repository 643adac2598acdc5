package format

import (
	"strings"
	"testing"

	"stkdecider/models"
	"stkdecider/progress"
	"stkdecider/service"
	"stkdecider/visual"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "$0.00"},
		{12.5, "$12.50"},
		{999.999, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-42.1, "-$42.10"},
	}
	for _, tt := range tests {
		if got := Money(tt.v); got != tt.want {
			t.Errorf("Money(%v): got %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1.234); got != "+1.23%" {
		t.Errorf("got %q", got)
	}
	if got := Percent(-0.5); got != "-0.50%" {
		t.Errorf("got %q", got)
	}
	if got := Percent(0); got != "+0.00%" {
		t.Errorf("got %q", got)
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{3.1e12, "$3.10T"},
		{2.456e9, "$2.46B"},
		{7.5e6, "$7.50M"},
		{950000, "$950,000.00"},
	}
	for _, tt := range tests {
		if got := Compact(tt.v); got != tt.want {
			t.Errorf("Compact(%v): got %q, want %q", tt.v, got, tt.want)
		}
	}
}

func sampleView(t *testing.T) *visual.AnalysisView {
	t.Helper()
	a := &models.CombinedAnalysis{
		Symbol: "AAPL",
		Analysis: models.CombinedAnalysisData{
			Prediction: models.PricePrediction{
				Symbol: "AAPL", CurrentPrice: 100, PredictedPrice: 104, Trend: models.TrendUp,
				ChangePercent: 4, ConfidenceScore: 66, DaysPredicted: 2,
				Predictions: []models.PricePredictionPoint{
					{Date: "2025-01-02", PredictedPrice: 102, LowerBound: 99, UpperBound: 105, Confidence: 70},
					{Date: "2025-01-03", PredictedPrice: 104, LowerBound: 100, UpperBound: 108, Confidence: 62},
				},
			},
			TechnicalSignals: models.TechnicalAnalysis{
				RSI:            72.5,
				MACD:           models.MACD{MACD: -0.4, Signal: -0.1, Histogram: -0.3},
				Signals:        []models.TechnicalSignal{{Type: "RSI", Signal: "Overbought", Strength: models.StrengthMedium, Action: models.ActionSell}},
				Recommendation: models.ActionHold,
				Confidence:     55,
			},
			FinalRecommendation: "HOLD",
			FinalConfidence:     58,
			Reasons:             []string{"Mixed signals"},
		},
	}
	v, err := visual.Compose(a)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return v
}

func TestAnalysisCard(t *testing.T) {
	out := AnalysisCard(sampleView(t))
	for _, want := range []string{
		"AAPL  ● HOLD",
		"Confidence: 58.0% (moderate)",
		"$100.00 → $104.00  +4.00%",
		"RSI: 72.5  ▼ Overbought",
		"▼ bearish",
		"- Mixed signals",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine(progress.DefaultSteps()[1])
	if !strings.HasPrefix(line, "[##########..........]  50%") {
		t.Errorf("got %q", line)
	}
	if !strings.Contains(line, "Prophet") {
		t.Errorf("tip missing: %q", line)
	}
}

func TestStockCard(t *testing.T) {
	pe := 29.456
	card := &service.Card{
		Info: &models.StockInfo{
			Symbol: "MSFT", Name: "Microsoft", CurrentPrice: 410.2, MarketCap: 3.05e12, TrailingPE: &pe,
		},
		History: &models.StockHistory{Period: "1mo", Data: []models.HistoricalData{
			{Date: "2025-01-02", Close: 400},
			{Date: "2025-01-31", Close: 410.2},
		}},
		Change: -1.8, ChangePercent: -0.4369,
	}
	out := StockCard(card)
	for _, want := range []string{"MSFT  Microsoft", "▼ -$1.80 (-0.44%)", "Market cap: $3.05T", "P/E: 29.46", "2 bars"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
}

func TestScreenerTable(t *testing.T) {
	up := 18.25
	res := &models.ScreenerResponse{Category: "undervalued", Stocks: []models.ScreenedStock{
		{Symbol: "INTC", Name: "Intel Corporation", CurrentPrice: 21.4, ChangePercent: 1.2, MarketCap: 9.2e10, Upside: &up},
	}}
	out := ScreenerTable(res)
	if !strings.Contains(out, "undervalued (1)") || !strings.Contains(out, "upside +18.3%") || !strings.Contains(out, "$92.00B") {
		t.Errorf("table:\n%s", out)
	}
}
