package models

import (
	"time"
)

const dayLayout = "2006-01-02"

// Trend is the forecast direction reported by the prediction service.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// Strength grades a single technical signal.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// Action is the structured BUY/SELL/HOLD verdict attached to technical data.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// PricePredictionPoint is one forecast day with its confidence interval.
type PricePredictionPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
	Confidence     float64 `json:"confidence"`
}

// Day parses the point's calendar date.
func (p PricePredictionPoint) Day() (time.Time, error) {
	return time.Parse(dayLayout, p.Date)
}

// PricePrediction is the forecast payload returned by /api/ml/predict.
type PricePrediction struct {
	Symbol          string                 `json:"symbol"`
	CurrentPrice    float64                `json:"current_price"`
	PredictedPrice  float64                `json:"predicted_price"`
	Trend           Trend                  `json:"trend"`
	ChangePercent   float64                `json:"change_percent"`
	ConfidenceScore float64                `json:"confidence_score"`
	Predictions     []PricePredictionPoint `json:"predictions"`
	DaysPredicted   int                    `json:"days_predicted"`
	Timestamp       string                 `json:"timestamp"`
}

// TrendConsistent reports whether trend and change_percent agree (up iff change > 0).
func (p *PricePrediction) TrendConsistent() bool {
	return (p.Trend == TrendUp) == (p.ChangePercent > 0)
}

// TechnicalSignal is a single indicator-derived signal.
type TechnicalSignal struct {
	Type     string   `json:"type"`
	Signal   string   `json:"signal"`
	Strength Strength `json:"strength"`
	Action   Action   `json:"action"`
}

// MACD holds the latest MACD line, signal line and histogram.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// TechnicalAnalysis is the payload returned by /api/ml/signals.
type TechnicalAnalysis struct {
	Symbol         string            `json:"symbol"`
	RSI            float64           `json:"rsi"`
	MACD           MACD              `json:"macd"`
	Signals        []TechnicalSignal `json:"signals"`
	Recommendation Action            `json:"recommendation"`
	Confidence     float64           `json:"confidence"`
	Timestamp      string            `json:"timestamp"`
}

// CombinedAnalysisData blends the forecast with the technical verdict.
type CombinedAnalysisData struct {
	Prediction          PricePrediction   `json:"prediction"`
	TechnicalSignals    TechnicalAnalysis `json:"technical_signals"`
	FinalRecommendation string            `json:"final_recommendation"`
	FinalConfidence     float64           `json:"final_confidence"`
	Reasons             []string          `json:"reasons"`
}

// CombinedAnalysis is the payload returned by /api/ml/analyze.
type CombinedAnalysis struct {
	Symbol    string               `json:"symbol"`
	Analysis  CombinedAnalysisData `json:"analysis"`
	Timestamp string               `json:"timestamp"`
}
