package format

import (
	"fmt"
	"strings"

	"stkdecider/models"
	"stkdecider/progress"
	"stkdecider/service"
	"stkdecider/visual"
)

const barWidth = 20

var tierMarks = map[visual.Tier]string{
	visual.TierPositive:   "▲",
	visual.TierNegative:   "▼",
	visual.TierCautionary: "●",
}

// AnalysisCard renders a composed analysis for the terminal.
func AnalysisCard(v *visual.AnalysisView) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s %s\n", v.Symbol, tierMarks[v.Recommendation.Tier], v.Recommendation.Label))
	b.WriteString(fmt.Sprintf("Confidence: %s%% (%s)\n", Fixed(v.FinalConfidence.Value, 1), v.FinalConfidence.Band))
	b.WriteString(fmt.Sprintf("%s\n\n", bar(v.FinalConfidence.Width)))

	// Forecast
	b.WriteString(fmt.Sprintf("Forecast (%d days): %s → %s  %s\n",
		v.DaysPredicted, Money(v.CurrentPrice), Money(v.PredictedPrice), v.Chart.ChangeBadge))
	b.WriteString(fmt.Sprintf("Model confidence: %s%% (%s)\n", Fixed(v.PredictionConfidence.Value, 1), v.PredictionConfidence.Band))
	b.WriteString(fmt.Sprintf("Band: %s – %s\n", v.Chart.MinLabel, v.Chart.MaxLabel))
	for _, r := range v.Rows {
		b.WriteString(fmt.Sprintf("  %s  %10s  [%s, %s]  %s%%\n",
			r.Date, Money(r.PredictedPrice), Money(r.LowerBound), Money(r.UpperBound), Fixed(r.Confidence.Value, 0)))
	}
	b.WriteString("\n")

	// Indicators
	b.WriteString(fmt.Sprintf("RSI: %s  %s %s\n", Fixed(v.RSI.Value, 1), tierMarks[v.RSI.Tier], v.RSI.Status))
	b.WriteString(fmt.Sprintf("MACD: %s  signal %s  histogram %s  %s %s\n",
		Fixed(v.MACD.MACD, 2), Fixed(v.MACD.Signal, 2), Fixed(v.MACD.Histogram, 2), tierMarks[v.MACD.Tier], v.MACD.Trend))
	b.WriteString(fmt.Sprintf("Technical verdict: %s (%s%%)\n", v.TechnicalAction, Fixed(v.TechnicalConfidence.Value, 0)))
	for _, s := range v.Signals {
		b.WriteString(fmt.Sprintf("  %s %-6s %-4s %s (%s)\n", tierMarks[s.Tier], s.Type, s.Action, s.Signal, s.Strength))
	}

	if len(v.Reasons) > 0 {
		b.WriteString("\nReasons:\n")
		for _, r := range v.Reasons {
			b.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}
	return b.String()
}

// ProgressLine renders one loading step with its bar and tip.
func ProgressLine(step progress.LoadingStep) string {
	line := fmt.Sprintf("%s %3d%%  %s", bar(float64(step.Progress)), step.Progress, step.Message)
	if step.Tip != "" {
		line += "\n      " + step.Tip
	}
	return line
}

// StockCard renders a profile with its latest change and history range.
func StockCard(c *service.Card) string {
	var b strings.Builder
	info := c.Info

	b.WriteString(fmt.Sprintf("%s  %s\n", info.Symbol, info.Name))
	if info.Exchange != "" || info.Sector != "" {
		b.WriteString(fmt.Sprintf("%s  %s / %s\n", info.Exchange, info.Sector, info.Industry))
	}
	mark := tierMarks[visual.TierNegative]
	if c.Positive {
		mark = tierMarks[visual.TierPositive]
	}
	b.WriteString(fmt.Sprintf("Price: %s  %s %s (%s)\n", Money(info.CurrentPrice), mark, signedMoney(c.Change), Percent(c.ChangePercent)))
	b.WriteString(fmt.Sprintf("Day: %s – %s  52w: %s – %s\n",
		Money(info.DayLow), Money(info.DayHigh), Money(info.FiftyTwoWeekLow), Money(info.FiftyTwoWeekHigh)))
	b.WriteString(fmt.Sprintf("Market cap: %s  Volume: %s\n", Compact(info.MarketCap), Fixed(info.Volume, 0)))
	if info.TrailingPE != nil {
		b.WriteString(fmt.Sprintf("P/E: %s\n", Fixed(*info.TrailingPE, 2)))
	}

	if n := len(c.History.Data); n > 0 {
		first, last := c.History.Data[0], c.History.Data[n-1]
		b.WriteString(fmt.Sprintf("History %s: %d bars, %s %s → %s %s\n",
			c.History.Period, n, first.Date, Money(first.Close), last.Date, Money(last.Close)))
	}
	return b.String()
}

// ScreenerTable renders a screener list, one stock per line.
func ScreenerTable(res *models.ScreenerResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%d)\n", res.Category, len(res.Stocks)))
	for _, s := range res.Stocks {
		line := fmt.Sprintf("  %-6s %-28s %10s %8s %10s", s.Symbol, truncate(s.Name, 28), Money(s.CurrentPrice), Percent(s.ChangePercent), Compact(s.MarketCap))
		if s.Upside != nil {
			line += fmt.Sprintf("  upside +%s%%", Fixed(*s.Upside, 1))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func signedMoney(v float64) string {
	if v >= 0 {
		return "+" + Money(v)
	}
	return Money(v)
}

func bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
