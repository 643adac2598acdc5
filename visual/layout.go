package visual

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"stkdecider/models"
)

// ErrInvalidInput is returned when a series cannot be laid out.
var ErrInvalidInput = models.ErrInvalidInput

const (
	// PaddingRatio is the share of the price range added above and below the band.
	PaddingRatio = 0.1

	// MinPadding is used instead of range*PaddingRatio when every bound is equal.
	// It is scaled by max(1, |MaxPrice|).
	MinPadding = 1e-6

	coordPrecision = 2
)

// PlotPoint is one forecast day in the 0-100 plotting space, 0 being the top.
type PlotPoint struct {
	X          float64 `json:"x"`
	YPredicted float64 `json:"yPredicted"`
	YUpper     float64 `json:"yUpper"`
	YLower     float64 `json:"yLower"`
}

// Coord is a vertex of the band polygon.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartLayout maps a forecast onto normalized coordinates.
type ChartLayout struct {
	MaxPrice float64     `json:"maxPrice"`
	MinPrice float64     `json:"minPrice"`
	Range    float64     `json:"range"`
	Padding  float64     `json:"padding"`
	Points   []PlotPoint `json:"points"`
}

// Layout computes the plotting coordinates for a non-empty forecast series.
func Layout(points []models.PricePredictionPoint) (*ChartLayout, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: cannot lay out an empty prediction series", ErrInvalidInput)
	}

	maxPrice := points[0].UpperBound
	minPrice := points[0].LowerBound
	for _, p := range points[1:] {
		maxPrice = math.Max(maxPrice, p.UpperBound)
		minPrice = math.Min(minPrice, p.LowerBound)
	}

	l := &ChartLayout{
		MaxPrice: maxPrice,
		MinPrice: minPrice,
		Range:    maxPrice - minPrice,
	}
	if l.Range > 0 {
		l.Padding = l.Range * PaddingRatio
	} else {
		l.Padding = MinPadding * math.Max(1, math.Abs(maxPrice))
	}

	n := len(points)
	l.Points = make([]PlotPoint, n)
	for i, p := range points {
		l.Points[i] = PlotPoint{
			X:          X(i, n),
			YPredicted: l.Y(p.PredictedPrice),
			YUpper:     l.Y(p.UpperBound),
			YLower:     l.Y(p.LowerBound),
		}
	}
	return l, nil
}

// X spaces n points evenly across 0-100. A single point sits at 0.
func X(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1) * 100
}

// Y maps a price to the vertical axis. Values inside the padded bounds land in [0,100].
func (l *ChartLayout) Y(v float64) float64 {
	return (l.MaxPrice + l.Padding - v) / (l.Range + 2*l.Padding) * 100
}

// Bounds returns the padded price interval drawn by the chart.
func (l *ChartLayout) Bounds() (lower, upper float64) {
	return l.MinPrice - l.Padding, l.MaxPrice + l.Padding
}

// BandPolygon walks the upper bound left to right, then the lower bound
// right to left.
func (l *ChartLayout) BandPolygon() []Coord {
	poly := make([]Coord, 0, 2*len(l.Points))
	for _, p := range l.Points {
		poly = append(poly, Coord{X: p.X, Y: p.YUpper})
	}
	for i := len(l.Points) - 1; i >= 0; i-- {
		p := l.Points[i]
		poly = append(poly, Coord{X: p.X, Y: p.YLower})
	}
	return poly
}

// BandPath renders BandPolygon as a closed SVG path.
func (l *ChartLayout) BandPath() string {
	poly := l.BandPolygon()
	if len(poly) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range poly {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(fmtCoord(c.X))
		b.WriteByte(' ')
		b.WriteString(fmtCoord(c.Y))
	}
	b.WriteString(" Z")
	return b.String()
}

// PredictedPolyline renders the predicted line as an SVG points list.
func (l *ChartLayout) PredictedPolyline() string {
	parts := make([]string, len(l.Points))
	for i, p := range l.Points {
		parts[i] = fmtCoord(p.X) + "," + fmtCoord(p.YPredicted)
	}
	return strings.Join(parts, " ")
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', coordPrecision, 64)
}
