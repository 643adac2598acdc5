package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/iter"
	polymodels "github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"stkdecider/models"
)

type polygonAPI interface {
	GetTickerDetails(ctx context.Context, params *polymodels.GetTickerDetailsParams, opts ...polymodels.RequestOption) (*polymodels.GetTickerDetailsResponse, error)
	GetTickerSnapshot(ctx context.Context, params *polymodels.GetTickerSnapshotParams, opts ...polymodels.RequestOption) (*polymodels.GetTickerSnapshotResponse, error)
	ListAggs(ctx context.Context, params *polymodels.ListAggsParams, opts ...polymodels.RequestOption) *iter.Iter[polymodels.Agg]
}

// PolygonSource serves stock cards from Polygon instead of the upstream API.
type PolygonSource struct {
	api    polygonAPI
	logger *zap.Logger
	now    func() time.Time
}

func NewPolygonSource(apiKey string, logger *zap.Logger) *PolygonSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolygonSource{api: polygon.New(apiKey), logger: logger, now: time.Now}
}

func (s *PolygonSource) GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	details, err := s.api.GetTickerDetails(ctx, &polymodels.GetTickerDetailsParams{Ticker: symbol})
	if err != nil {
		return nil, fmt.Errorf("polygon ticker details %s: %w", symbol, err)
	}
	snap, err := s.api.GetTickerSnapshot(ctx, &polymodels.GetTickerSnapshotParams{
		Ticker:     symbol,
		Locale:     "us",
		MarketType: "stocks",
	})
	if err != nil {
		return nil, fmt.Errorf("polygon snapshot %s: %w", symbol, err)
	}
	return stockInfoFromPolygon(symbol, details.Results, snap.Snapshot), nil
}

func stockInfoFromPolygon(symbol string, t polymodels.Ticker, snap polymodels.TickerSnapshot) *models.StockInfo {
	price := snap.Day.Close
	if price == 0 {
		price = snap.PrevDay.Close
	}
	return &models.StockInfo{
		Symbol:        symbol,
		Name:          t.Name,
		Currency:      strings.ToUpper(t.CurrencyName),
		Exchange:      t.PrimaryExchange,
		Industry:      t.SICDescription,
		MarketCap:     t.MarketCap,
		Website:       t.HomepageURL,
		Description:   t.Description,
		Employees:     int(t.TotalEmployees),
		Country:       strings.ToUpper(t.Locale),
		CurrentPrice:  price,
		PreviousClose: snap.PrevDay.Close,
		Open:          snap.Day.Open,
		DayLow:        snap.Day.Low,
		DayHigh:       snap.Day.High,
		Volume:        snap.Day.Volume,
	}
}

func (s *PolygonSource) GetStockHistory(ctx context.Context, symbol, period string) (*models.StockHistory, error) {
	from, to, err := periodRange(period, s.now())
	if err != nil {
		return nil, err
	}
	params := polymodels.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   polymodels.Timespan("day"),
		From:       polymodels.Millis(from),
		To:         polymodels.Millis(to),
	}.
		WithAdjusted(true).
		WithOrder(polymodels.Order("asc")).
		WithLimit(5000)

	it := s.api.ListAggs(ctx, params)
	var aggs []polymodels.Agg
	for it.Next() {
		aggs = append(aggs, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggregates %s: %w", symbol, err)
	}
	s.logger.Debug("polygon aggregates", zap.String("symbol", symbol), zap.Int("bars", len(aggs)))

	return &models.StockHistory{
		Symbol: symbol,
		Period: period,
		Data:   barsFromAggs(aggs),
	}, nil
}

func barsFromAggs(aggs []polymodels.Agg) []models.HistoricalData {
	out := make([]models.HistoricalData, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, models.HistoricalData{
			Date:   time.Time(agg.Timestamp).UTC().Format("2006-01-02"),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}
	return out
}

// periodRange converts a history period code into a date window ending at now.
func periodRange(period string, now time.Time) (time.Time, time.Time, error) {
	var from time.Time
	switch period {
	case "1d":
		from = now.AddDate(0, 0, -1)
	case "5d":
		from = now.AddDate(0, 0, -5)
	case "1mo":
		from = now.AddDate(0, -1, 0)
	case "3mo":
		from = now.AddDate(0, -3, 0)
	case "6mo":
		from = now.AddDate(0, -6, 0)
	case "1y":
		from = now.AddDate(-1, 0, 0)
	case "2y":
		from = now.AddDate(-2, 0, 0)
	case "5y":
		from = now.AddDate(-5, 0, 0)
	case "10y":
		from = now.AddDate(-10, 0, 0)
	case "ytd":
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	case "max":
		from = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, time.Time{}, &UserError{Kind: KindInvalidInput, Message: fmt.Sprintf("unknown period %q", period)}
	}
	return from, now, nil
}
