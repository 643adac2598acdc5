package visual

const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// RSIStatus is the badge shown next to the RSI value.
type RSIStatus int

const (
	RSINeutral RSIStatus = iota
	RSIOversoldStatus
	RSIOverboughtStatus
)

func (s RSIStatus) String() string {
	switch s {
	case RSIOversoldStatus:
		return "Oversold"
	case RSIOverboughtStatus:
		return "Overbought"
	default:
		return "Neutral"
	}
}

// Tier is the card colour for the status. Oversold reads as an opportunity.
func (s RSIStatus) Tier() Tier {
	switch s {
	case RSIOversoldStatus:
		return TierPositive
	case RSIOverboughtStatus:
		return TierNegative
	default:
		return TierCautionary
	}
}

func (s RSIStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ClassifyRSI uses strict thresholds: 30 and 70 are neutral.
func ClassifyRSI(v float64) RSIStatus {
	switch {
	case v < RSIOversold:
		return RSIOversoldStatus
	case v > RSIOverbought:
		return RSIOverboughtStatus
	default:
		return RSINeutral
	}
}

// MACDTrend is the direction implied by the MACD histogram.
type MACDTrend int

const (
	MACDBearish MACDTrend = iota
	MACDBullish
)

func (t MACDTrend) String() string {
	if t == MACDBullish {
		return "bullish"
	}
	return "bearish"
}

func (t MACDTrend) Tier() Tier {
	if t == MACDBullish {
		return TierPositive
	}
	return TierNegative
}

func (t MACDTrend) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ClassifyMACD treats a zero histogram as bearish.
func ClassifyMACD(histogram float64) MACDTrend {
	if histogram > 0 {
		return MACDBullish
	}
	return MACDBearish
}

// Zone is a coloured segment of the RSI gauge.
type Zone struct {
	From   float64   `json:"from"`
	To     float64   `json:"to"`
	Status RSIStatus `json:"status"`
	Color  string    `json:"color"`
}

// RSIZones returns the oversold, neutral and overbought gauge segments.
func RSIZones() []Zone {
	zones := []Zone{
		{From: 0, To: RSIOversold, Status: RSIOversoldStatus},
		{From: RSIOversold, To: RSIOverbought, Status: RSINeutral},
		{From: RSIOverbought, To: 100, Status: RSIOverboughtStatus},
	}
	for i := range zones {
		zones[i].Color = zones[i].Status.Tier().Color()
	}
	return zones
}

// RSIMarker is the marker position on the 0-100 gauge.
func RSIMarker(v float64) float64 {
	return clampPercent(v)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
