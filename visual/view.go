package visual

import (
	"fmt"

	"stkdecider/models"
)

// RecommendationView is the verdict banner.
type RecommendationView struct {
	Label   string  `json:"label"`
	Tier    Tier    `json:"tier"`
	Color   string  `json:"color"`
	Icon    string  `json:"icon"`
	Palette Palette `json:"palette"`
}

type RSIView struct {
	Value  float64   `json:"value"`
	Status RSIStatus `json:"status"`
	Tier   Tier      `json:"tier"`
	Color  string    `json:"color"`
	Marker float64   `json:"marker"`
	Zones  []Zone    `json:"zones"`
}

type MACDView struct {
	MACD      float64   `json:"macd"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
	Trend     MACDTrend `json:"trend"`
	Tier      Tier      `json:"tier"`
	Color     string    `json:"color"`
}

// SignalView is one row of the technical signals list.
type SignalView struct {
	Type     string          `json:"type"`
	Signal   string          `json:"signal"`
	Strength models.Strength `json:"strength"`
	Action   models.Action   `json:"action"`
	Tier     Tier            `json:"tier"`
	Color    string          `json:"color"`
}

// PredictionRow is one row of the forecast table.
type PredictionRow struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predictedPrice"`
	LowerBound     float64 `json:"lowerBound"`
	UpperBound     float64 `json:"upperBound"`
	Confidence     Gauge   `json:"confidence"`
}

// ChartView carries everything needed to draw the forecast chart in the browser.
type ChartView struct {
	Layout          *ChartLayout `json:"layout"`
	BandPath        string       `json:"bandPath"`
	Polyline        string       `json:"polyline"`
	CurrentPrice    float64      `json:"currentPrice"`
	CurrentPriceY   float64      `json:"currentPriceY"`
	CurrentInRange  bool         `json:"currentInRange"`
	CurrentColor    string       `json:"currentColor"`
	MaxLabel        string       `json:"maxLabel"`
	MinLabel        string       `json:"minLabel"`
	Trend           models.Trend `json:"trend"`
	TrendTier       Tier         `json:"trendTier"`
	TrendColor      string       `json:"trendColor"`
	ChangeBadge     string       `json:"changeBadge"`
	TrendConsistent bool         `json:"trendConsistent"`
}

// AnalysisView is the composed, render-ready state of one analysis.
type AnalysisView struct {
	Symbol               string             `json:"symbol"`
	Recommendation       RecommendationView `json:"recommendation"`
	FinalConfidence      Gauge              `json:"finalConfidence"`
	PredictionConfidence Gauge              `json:"predictionConfidence"`
	TechnicalConfidence  Gauge              `json:"technicalConfidence"`
	TechnicalAction      models.Action      `json:"technicalAction"`
	TechnicalTier        Tier               `json:"technicalTier"`
	Reasons              []string           `json:"reasons"`
	CurrentPrice         float64            `json:"currentPrice"`
	PredictedPrice       float64            `json:"predictedPrice"`
	ChangePercent        float64            `json:"changePercent"`
	DaysPredicted        int                `json:"daysPredicted"`
	RSI                  RSIView            `json:"rsi"`
	MACD                 MACDView           `json:"macd"`
	Signals              []SignalView       `json:"signals"`
	Chart                ChartView          `json:"chart"`
	Rows                 []PredictionRow    `json:"rows"`
	GeneratedAt          string             `json:"generatedAt"`
}

// Compose validates a combined analysis and derives every label, tier and
// coordinate the dashboard shows.
func Compose(a *models.CombinedAnalysis) (*AnalysisView, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil analysis", ErrInvalidInput)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("compose %s: %w", a.Symbol, err)
	}
	pred := &a.Analysis.Prediction
	tech := &a.Analysis.TechnicalSignals

	chartView, err := composeChart(pred)
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", a.Symbol, err)
	}

	rec := ParseRecommendation(a.Analysis.FinalRecommendation)
	rsi := ClassifyRSI(tech.RSI)
	macd := ClassifyMACD(tech.MACD.Histogram)

	v := &AnalysisView{
		Symbol: a.Symbol,
		Recommendation: RecommendationView{
			Label:   a.Analysis.FinalRecommendation,
			Tier:    rec,
			Color:   rec.Color(),
			Icon:    rec.Icon(),
			Palette: rec.Palette(),
		},
		FinalConfidence:      NewGauge(a.Analysis.FinalConfidence),
		PredictionConfidence: NewGauge(pred.ConfidenceScore),
		TechnicalConfidence:  NewGauge(tech.Confidence),
		TechnicalAction:      tech.Recommendation,
		TechnicalTier:        TierFromAction(tech.Recommendation),
		Reasons:              append([]string(nil), a.Analysis.Reasons...),
		CurrentPrice:         pred.CurrentPrice,
		PredictedPrice:       pred.PredictedPrice,
		ChangePercent:        pred.ChangePercent,
		DaysPredicted:        pred.DaysPredicted,
		RSI: RSIView{
			Value:  tech.RSI,
			Status: rsi,
			Tier:   rsi.Tier(),
			Color:  rsi.Tier().Color(),
			Marker: RSIMarker(tech.RSI),
			Zones:  RSIZones(),
		},
		MACD: MACDView{
			MACD:      tech.MACD.MACD,
			Signal:    tech.MACD.Signal,
			Histogram: tech.MACD.Histogram,
			Trend:     macd,
			Tier:      macd.Tier(),
			Color:     macd.Tier().Color(),
		},
		Chart:       *chartView,
		GeneratedAt: a.Timestamp,
	}

	v.Signals = make([]SignalView, len(tech.Signals))
	for i, s := range tech.Signals {
		t := TierFromAction(s.Action)
		v.Signals[i] = SignalView{
			Type:     s.Type,
			Signal:   s.Signal,
			Strength: s.Strength,
			Action:   s.Action,
			Tier:     t,
			Color:    t.Color(),
		}
	}

	v.Rows = make([]PredictionRow, len(pred.Predictions))
	for i, p := range pred.Predictions {
		v.Rows[i] = PredictionRow{
			Date:           p.Date,
			PredictedPrice: p.PredictedPrice,
			LowerBound:     p.LowerBound,
			UpperBound:     p.UpperBound,
			Confidence:     NewGauge(p.Confidence),
		}
	}
	return v, nil
}

func composeChart(pred *models.PricePrediction) (*ChartView, error) {
	layout, err := Layout(pred.Predictions)
	if err != nil {
		return nil, err
	}
	trend := TrendTier(pred.Trend)
	y := layout.Y(pred.CurrentPrice)
	return &ChartView{
		Layout:          layout,
		BandPath:        layout.BandPath(),
		Polyline:        layout.PredictedPolyline(),
		CurrentPrice:    pred.CurrentPrice,
		CurrentPriceY:   y,
		CurrentInRange:  y >= 0 && y <= 100,
		CurrentColor:    hex(colorIndigo),
		MaxLabel:        fmt.Sprintf("$%.2f", layout.MaxPrice),
		MinLabel:        fmt.Sprintf("$%.2f", layout.MinPrice),
		Trend:           pred.Trend,
		TrendTier:       trend,
		TrendColor:      trend.Color(),
		ChangeBadge:     ChangeBadge(pred.ChangePercent),
		TrendConsistent: pred.TrendConsistent(),
	}, nil
}

// TrendTier colours the forecast by its reported direction.
func TrendTier(t models.Trend) Tier {
	if t == models.TrendUp {
		return TierPositive
	}
	return TierNegative
}

// ChangeBadge formats a percent change with an explicit sign.
func ChangeBadge(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}
