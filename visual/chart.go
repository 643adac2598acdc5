package visual

import (
	"fmt"
	"io"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"stkdecider/models"
)

// ChartFormat selects the go-chart renderer.
type ChartFormat string

const (
	ChartPNG ChartFormat = "png"
	ChartSVG ChartFormat = "svg"

	DefaultChartWidth  = 900
	DefaultChartHeight = 400
)

// ParseChartFormat accepts "png" and "svg" in any case; empty means png.
func ParseChartFormat(s string) (ChartFormat, error) {
	switch ChartFormat(strings.ToLower(s)) {
	case "", ChartPNG:
		return ChartPNG, nil
	case ChartSVG:
		return ChartSVG, nil
	}
	return "", fmt.Errorf("%w: unknown chart format %q", ErrInvalidInput, s)
}

func (f ChartFormat) ContentType() string {
	if f == ChartSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f ChartFormat) provider() chart.RendererProvider {
	if f == ChartSVG {
		return chart.SVG
	}
	return chart.PNG
}

// RenderChart draws the forecast: confidence band, predicted line in the
// trend colour and a dashed current-price line.
func RenderChart(w io.Writer, p *models.PricePrediction, format ChartFormat, width, height int) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	layout, err := Layout(p.Predictions)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	var days []time.Time
	var predicted, upper, lower []float64
	for _, pt := range p.Predictions {
		day, err := pt.Day()
		if err != nil {
			return fmt.Errorf("%w: bad prediction date %q", ErrInvalidInput, pt.Date)
		}
		days = append(days, day)
		predicted = append(predicted, pt.PredictedPrice)
		upper = append(upper, pt.UpperBound)
		lower = append(lower, pt.LowerBound)
	}

	// go-chart cannot build an x range from a single value
	if len(days) == 1 {
		days = append(days, days[0].Add(24*time.Hour))
		predicted = append(predicted, predicted[0])
		upper = append(upper, upper[0])
		lower = append(lower, lower[0])
	}

	trend := TrendTier(p.Trend).ChartColor()
	band := withAlpha(trend, 48)
	current := []float64{p.CurrentPrice, p.CurrentPrice}
	yMin, yMax := layout.Bounds()

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s %d-day forecast", p.Symbol, len(p.Predictions)),
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Price",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Upper bound",
				XValues: days,
				YValues: upper,
				Style: chart.Style{
					StrokeColor: band,
					FillColor:   band,
				},
			},
			// masks the fill below the lower bound so only the band stays tinted
			chart.TimeSeries{
				Name:    "Lower bound",
				XValues: days,
				YValues: lower,
				Style: chart.Style{
					StrokeColor: band,
					FillColor:   drawing.ColorWhite,
				},
			},
			chart.TimeSeries{
				Name:    "Predicted",
				XValues: days,
				YValues: predicted,
				Style: chart.Style{
					StrokeColor: trend,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Current price",
				XValues: []time.Time{days[0], days[len(days)-1]},
				YValues: current,
				Style: chart.Style{
					StrokeColor:     colorIndigo,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}

	if err := graph.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render %s chart for %s: %w", format, p.Symbol, err)
	}
	return nil
}

func withAlpha(c drawing.Color, a uint8) drawing.Color {
	c.A = a
	return c
}
