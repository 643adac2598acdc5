package visual

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"stkdecider/models"
)

// Tier is the visual severity of a verdict, badge or gauge.
type Tier int

const (
	TierCautionary Tier = iota
	TierPositive
	TierNegative
)

// Palette is the background/foreground/border triple of a card.
type Palette struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Border     string `json:"border"`
}

var (
	colorGreen  = drawing.Color{R: 34, G: 197, B: 94, A: 255}
	colorRed    = drawing.Color{R: 239, G: 68, B: 68, A: 255}
	colorYellow = drawing.Color{R: 234, G: 179, B: 8, A: 255}
	colorIndigo = drawing.Color{R: 99, G: 102, B: 241, A: 255}
)

func (t Tier) String() string {
	switch t {
	case TierPositive:
		return "positive"
	case TierNegative:
		return "negative"
	default:
		return "cautionary"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ChartColor is the go-chart colour for the tier.
func (t Tier) ChartColor() drawing.Color {
	switch t {
	case TierPositive:
		return colorGreen
	case TierNegative:
		return colorRed
	default:
		return colorYellow
	}
}

// Color is the hex form of ChartColor.
func (t Tier) Color() string {
	return hex(t.ChartColor())
}

func hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (t Tier) Icon() string {
	switch t {
	case TierPositive:
		return "trending-up"
	case TierNegative:
		return "trending-down"
	default:
		return "alert-circle"
	}
}

func (t Tier) Palette() Palette {
	switch t {
	case TierPositive:
		return Palette{Background: "#f0fdf4", Foreground: "#15803d", Border: "#bbf7d0"}
	case TierNegative:
		return Palette{Background: "#fef2f2", Foreground: "#b91c1c", Border: "#fecaca"}
	default:
		return Palette{Background: "#fefce8", Foreground: "#a16207", Border: "#fef08a"}
	}
}

// TierFromAction maps a structured BUY/SELL/HOLD value.
func TierFromAction(a models.Action) Tier {
	switch a {
	case models.ActionBuy:
		return TierPositive
	case models.ActionSell:
		return TierNegative
	default:
		return TierCautionary
	}
}

// ParseRecommendation turns a free-text verdict such as "STRONG BUY" into a
// tier. Labels naming both BUY and SELL, or neither, are cautionary.
func ParseRecommendation(label string) Tier {
	var buy, sell bool
	tokens := strings.FieldsFunc(strings.ToUpper(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range tokens {
		switch tok {
		case "BUY":
			buy = true
		case "SELL":
			sell = true
		}
	}
	switch {
	case buy && !sell:
		return TierPositive
	case sell && !buy:
		return TierNegative
	default:
		return TierCautionary
	}
}

// ConfidenceBand grades any confidence-style value.
type ConfidenceBand int

const (
	BandWeak ConfidenceBand = iota
	BandModerate
	BandStrong
)

const (
	strongConfidence   = 70.0
	moderateConfidence = 50.0
)

func (b ConfidenceBand) String() string {
	switch b {
	case BandStrong:
		return "strong"
	case BandModerate:
		return "moderate"
	default:
		return "weak"
	}
}

func (b ConfidenceBand) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Tier colours the band green, yellow or red.
func (b ConfidenceBand) Tier() Tier {
	switch b {
	case BandStrong:
		return TierPositive
	case BandModerate:
		return TierCautionary
	default:
		return TierNegative
	}
}

// BandFor is the single threshold function shared by every confidence gauge.
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= strongConfidence:
		return BandStrong
	case confidence >= moderateConfidence:
		return BandModerate
	default:
		return BandWeak
	}
}

// Gauge is a confidence bar.
type Gauge struct {
	Value float64        `json:"value"`
	Band  ConfidenceBand `json:"band"`
	Color string         `json:"color"`
	Width float64        `json:"width"`
}

func NewGauge(confidence float64) Gauge {
	band := BandFor(confidence)
	return Gauge{
		Value: confidence,
		Band:  band,
		Color: band.Tier().Color(),
		Width: clampPercent(confidence),
	}
}
