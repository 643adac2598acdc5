package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks payloads that cannot be rendered: empty series,
// non-finite numbers or inverted bounds.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks one forecast point. Bounds must be finite and ordered
// lower <= predicted <= upper.
func (p PricePredictionPoint) Validate() error {
	for name, v := range map[string]float64{
		"predicted_price": p.PredictedPrice,
		"lower_bound":     p.LowerBound,
		"upper_bound":     p.UpperBound,
		"confidence":      p.Confidence,
	} {
		if !finite(v) {
			return invalid("point %s: %s is not finite", p.Date, name)
		}
	}
	if p.LowerBound > p.UpperBound {
		return invalid("point %s: lower_bound %.4f above upper_bound %.4f", p.Date, p.LowerBound, p.UpperBound)
	}
	if p.PredictedPrice < p.LowerBound || p.PredictedPrice > p.UpperBound {
		return invalid("point %s: predicted_price %.4f outside [%.4f, %.4f]", p.Date, p.PredictedPrice, p.LowerBound, p.UpperBound)
	}
	return nil
}

// Validate checks the forecast header and every point.
func (p *PricePrediction) Validate() error {
	if len(p.Predictions) == 0 {
		return invalid("prediction for %q has no points", p.Symbol)
	}
	if !finite(p.CurrentPrice) || !finite(p.PredictedPrice) || !finite(p.ChangePercent) || !finite(p.ConfidenceScore) {
		return invalid("prediction for %q has non-finite header values", p.Symbol)
	}
	for i, pt := range p.Predictions {
		if err := pt.Validate(); err != nil {
			return fmt.Errorf("prediction[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate rejects non-finite indicator values before they reach the classifiers.
func (t *TechnicalAnalysis) Validate() error {
	if !finite(t.RSI) {
		return invalid("rsi is not finite")
	}
	if !finite(t.MACD.MACD) || !finite(t.MACD.Signal) || !finite(t.MACD.Histogram) {
		return invalid("macd values are not finite")
	}
	if !finite(t.Confidence) {
		return invalid("technical confidence is not finite")
	}
	return nil
}

// Validate is the ingestion check for a combined analysis snapshot.
func (c *CombinedAnalysis) Validate() error {
	if c == nil {
		return invalid("nil analysis")
	}
	if err := c.Analysis.Prediction.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.TechnicalSignals.Validate(); err != nil {
		return err
	}
	if !finite(c.Analysis.FinalConfidence) {
		return invalid("final_confidence is not finite")
	}
	return nil
}
