package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stkdecider/models"
)

const DefaultPeriod = "1mo"

// StockSource provides the two payloads of a stock card.
type StockSource interface {
	GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error)
	GetStockHistory(ctx context.Context, symbol, period string) (*models.StockHistory, error)
}

// Card is a stock profile with its price history.
type Card struct {
	Info          *models.StockInfo    `json:"info"`
	History       *models.StockHistory `json:"history"`
	Change        float64              `json:"change"`
	ChangePercent float64              `json:"changePercent"`
	Positive      bool                 `json:"positive"`
}

// StockCard fetches info and history concurrently. Either both succeed or
// the first failure is returned; a half-filled card is never built.
func StockCard(ctx context.Context, src StockSource, symbol, period string) (*Card, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, EmptySymbol()
	}
	if period == "" {
		period = DefaultPeriod
	}
	if !models.ValidPeriod(period) {
		return nil, &UserError{Kind: KindInvalidInput, Message: fmt.Sprintf("unknown period %q", period)}
	}

	var (
		info    *models.StockInfo
		history *models.StockHistory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = src.GetStockInfo(gctx, symbol)
		if err != nil {
			return fmt.Errorf("stock info %s: %w", symbol, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = src.GetStockHistory(gctx, symbol, period)
		if err != nil {
			return fmt.Errorf("stock history %s: %w", symbol, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	change, pct := DayChange(info.CurrentPrice, info.PreviousClose)
	return &Card{
		Info:          info,
		History:       history,
		Change:        change,
		ChangePercent: pct,
		Positive:      change >= 0,
	}, nil
}

// DayChange returns current-previous and the percent move, rounded to 4 places.
func DayChange(current, previous float64) (float64, float64) {
	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previous)
	diff := cur.Sub(prev)
	if prev.IsZero() {
		return diff.Round(4).InexactFloat64(), 0
	}
	pct := diff.Div(prev).Mul(decimal.NewFromInt(100))
	return diff.Round(4).InexactFloat64(), pct.Round(4).InexactFloat64()
}
