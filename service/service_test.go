package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	polymodels "github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"stkdecider/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zap.NewNop())
}

func TestClient_GetCombinedAnalysis(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ml/analyze/AAPL" || r.URL.Query().Get("days") != "7" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		fmt.Fprint(w, `{"symbol":"AAPL","analysis":{"final_recommendation":"STRONG BUY","final_confidence":82},"timestamp":"t"}`)
	})
	a, err := c.GetCombinedAnalysis(context.Background(), "AAPL", 7)
	if err != nil {
		t.Fatalf("GetCombinedAnalysis: %v", err)
	}
	if a.Analysis.FinalRecommendation != "STRONG BUY" || a.Analysis.FinalConfidence != 82 {
		t.Fatalf("decoded: got %+v", a.Analysis)
	}
}

func TestClient_Paths(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.URL.RequestURI())
		mu.Unlock()
		fmt.Fprint(w, `{}`)
	})
	ctx := context.Background()
	c.GetStockInfo(ctx, "MSFT")
	c.GetStockHistory(ctx, "MSFT", "3mo")
	c.GetStockQuote(ctx, "MSFT")
	c.SearchStocks(ctx, "micro")
	c.GetUndervalued(ctx)
	c.GetTopGainers(ctx)
	c.GetTopLosers(ctx)
	c.PredictStockPrice(ctx, "MSFT", 14)
	c.GetTechnicalSignals(ctx, "MSFT")

	want := []string{
		"/api/stocks/info/MSFT",
		"/api/stocks/history/MSFT?period=3mo",
		"/api/stocks/quote/MSFT",
		"/api/stocks/search?q=micro",
		"/api/screener/undervalued",
		"/api/screener/gainers",
		"/api/screener/losers",
		"/api/ml/predict/MSFT?days=14",
		"/api/ml/signals/MSFT",
	}
	if len(got) != len(want) {
		t.Fatalf("requests: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestClient_ScreenerFillsCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stocks":[{"symbol":"A","changePercent":3.1},{"symbol":"B","changePercent":2.2}]}`)
	})
	res, err := c.GetTopGainers(context.Background())
	if err != nil {
		t.Fatalf("GetTopGainers: %v", err)
	}
	if res.Count != 2 || res.Category != "gainers" {
		t.Fatalf("got %+v", res)
	}
}

func TestClient_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"not enough data"}`, http.StatusNotFound)
	})
	_, err := c.GetCombinedAnalysis(context.Background(), "ZZZZ", 7)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if !strings.Contains(he.Body, "not enough data") {
		t.Errorf("body: got %q", he.Body)
	}
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	})
	_, err := c.GetStockInfo(context.Background(), "AAPL")
	if err == nil || !strings.Contains(err.Error(), "decode stock_info") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if u := Classify(err, "AAPL"); u.Kind != KindTransient {
		t.Errorf("kind: got %v, want transient", u.Kind)
	}
}

type recordingObserver struct {
	endpoints []string
	errs      []error
}

func (o *recordingObserver) ObserveUpstream(endpoint string, _ time.Duration, err error) {
	o.endpoints = append(o.endpoints, endpoint)
	o.errs = append(o.errs, err)
}

func TestClient_Observer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	obs := &recordingObserver{}
	c.Observer = obs
	c.GetTechnicalSignals(context.Background(), "AAPL")
	if len(obs.endpoints) != 1 || obs.endpoints[0] != "ml_signals" || obs.errs[0] == nil {
		t.Fatalf("observer: got %v %v", obs.endpoints, obs.errs)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"404", NewHTTPError(404, ""), KindNotFound, "insufficient data found for ZZZZ"},
		{"429", NewHTTPError(429, ""), KindRateLimited, MsgRateLimited},
		{"500", NewHTTPError(500, "boom"), KindTransient, MsgTransient},
		{"wrapped 404", fmt.Errorf("ml_analyze: %w", NewHTTPError(404, "")), KindNotFound, "insufficient data found for ZZZZ"},
		{"network", errors.New("connection refused"), KindTransient, MsgTransient},
		{"canceled", fmt.Errorf("ml_analyze: %w", context.Canceled), KindCanceled, MsgCanceled},
		{"invalid", fmt.Errorf("compose: %w", models.ErrInvalidInput), KindInvalidInput, MsgInvalidInput},
		{"user error", EmptySymbol(), KindInvalidInput, MsgEmptySymbol},
	}
	for _, tt := range tests {
		u := Classify(tt.err, "ZZZZ")
		if u.Kind != tt.kind || u.Message != tt.msg {
			t.Errorf("%s: got %v %q, want %v %q", tt.name, u.Kind, u.Message, tt.kind, tt.msg)
		}
		if strings.Contains(u.Message, "boom") || strings.Contains(u.Message, "refused") {
			t.Errorf("%s: raw error leaked into message %q", tt.name, u.Message)
		}
	}
	if Classify(nil, "X") != nil {
		t.Error("nil error should classify to nil")
	}
}

type fakeSource struct {
	info       *models.StockInfo
	infoErr    error
	historyErr error
	calls      atomic.Int32
}

func (f *fakeSource) GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	f.calls.Add(1)
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeSource) GetStockHistory(ctx context.Context, symbol, period string) (*models.StockHistory, error) {
	f.calls.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return &models.StockHistory{Symbol: symbol, Period: period, Data: []models.HistoricalData{{Date: "2025-01-02", Close: 10}}}, nil
}

func TestStockCard_BothSucceed(t *testing.T) {
	src := &fakeSource{info: &models.StockInfo{Symbol: "AAPL", CurrentPrice: 110, PreviousClose: 100}}
	card, err := StockCard(context.Background(), src, " aapl ", "")
	if err != nil {
		t.Fatalf("StockCard: %v", err)
	}
	if card.History.Period != DefaultPeriod || card.History.Symbol != "AAPL" {
		t.Errorf("history: got %+v", card.History)
	}
	if card.Change != 10 || card.ChangePercent != 10 || !card.Positive {
		t.Errorf("change: got %v %v", card.Change, card.ChangePercent)
	}
}

func TestStockCard_PartialFailureShowsNothing(t *testing.T) {
	src := &fakeSource{
		info:       &models.StockInfo{Symbol: "AAPL"},
		historyErr: NewHTTPError(http.StatusNotFound, ""),
	}
	card, err := StockCard(context.Background(), src, "AAPL", "1mo")
	if card != nil {
		t.Fatalf("partial card returned: %+v", card)
	}
	if u := Classify(err, "AAPL"); u.Kind != KindNotFound {
		t.Fatalf("kind: got %v", u.Kind)
	}
}

func TestStockCard_Validation(t *testing.T) {
	src := &fakeSource{}
	if _, err := StockCard(context.Background(), src, "  ", "1mo"); Classify(err, "").Kind != KindInvalidInput {
		t.Errorf("empty symbol: got %v", err)
	}
	if _, err := StockCard(context.Background(), src, "AAPL", "2w"); Classify(err, "AAPL").Kind != KindInvalidInput {
		t.Errorf("bad period: got %v", err)
	}
	if src.calls.Load() != 0 {
		t.Errorf("source called for invalid input")
	}
}

func TestDayChange(t *testing.T) {
	c, p := DayChange(189.84, 187.15)
	if c != 2.69 {
		t.Errorf("change: got %v, want 2.69", c)
	}
	if p != 1.4373 {
		t.Errorf("percent: got %v, want 1.4373", p)
	}
	if _, p := DayChange(5, 0); p != 0 {
		t.Errorf("zero previous close: got %v", p)
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	from, to, err := periodRange("3mo", now)
	if err != nil || !from.Equal(time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)) || !to.Equal(now) {
		t.Fatalf("3mo: got %v %v %v", from, to, err)
	}
	from, _, _ = periodRange("ytd", now)
	if from.Month() != time.January || from.Day() != 1 || from.Year() != 2025 {
		t.Errorf("ytd: got %v", from)
	}
	for _, p := range models.HistoryPeriods {
		if _, _, err := periodRange(p, now); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
	if _, _, err := periodRange("7w", now); err == nil {
		t.Error("7w should fail")
	}
}

func TestStockInfoFromPolygon(t *testing.T) {
	ticker := polymodels.Ticker{
		Name:            "Apple Inc.",
		CurrencyName:    "usd",
		PrimaryExchange: "XNAS",
		MarketCap:       3.1e12,
		Locale:          "us",
		SICDescription:  "ELECTRONIC COMPUTERS",
	}
	snap := polymodels.TickerSnapshot{
		Day:     polymodels.DaySnapshot{Open: 188, High: 191, Low: 187, Close: 190, Volume: 5e7},
		PrevDay: polymodels.DaySnapshot{Close: 186},
	}
	info := stockInfoFromPolygon("AAPL", ticker, snap)
	if info.CurrentPrice != 190 || info.PreviousClose != 186 || info.Currency != "USD" || info.Country != "US" {
		t.Fatalf("got %+v", info)
	}

	snap.Day = polymodels.DaySnapshot{}
	if info := stockInfoFromPolygon("AAPL", ticker, snap); info.CurrentPrice != 186 {
		t.Errorf("closed market should fall back to previous close, got %v", info.CurrentPrice)
	}
}

func TestBarsFromAggs(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 15, 0, 0, 0, time.UTC)
	bars := barsFromAggs([]polymodels.Agg{{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, Timestamp: polymodels.Millis(ts)}})
	if len(bars) != 1 || bars[0].Date != "2025-01-02" || bars[0].Close != 1.5 {
		t.Fatalf("got %+v", bars)
	}
}
