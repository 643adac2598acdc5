package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stkdecider/dashboard"
	"stkdecider/metrics"
	"stkdecider/models"
	"stkdecider/service"
)

// fakeUpstream answers every upstream call from fixed fields.
type fakeUpstream struct {
	analysis   map[string]*models.CombinedAnalysis
	analysisFn func(symbol string) (*models.CombinedAnalysis, error)
	prediction *models.PricePrediction
	info       *models.StockInfo
	history    *models.StockHistory
	historyErr error
	quote      *models.StockQuote
	search     *models.StockSearch
	screener   *models.ScreenerResponse
	err        error
}

func (f *fakeUpstream) GetCombinedAnalysis(_ context.Context, symbol string, _ int) (*models.CombinedAnalysis, error) {
	if f.analysisFn != nil {
		return f.analysisFn(symbol)
	}
	if a, ok := f.analysis[symbol]; ok {
		return a, nil
	}
	return nil, service.NewHTTPError(http.StatusNotFound, `{"detail":"not found"}`)
}

func (f *fakeUpstream) PredictStockPrice(_ context.Context, _ string, _ int) (*models.PricePrediction, error) {
	return f.prediction, f.err
}

func (f *fakeUpstream) GetStockInfo(_ context.Context, _ string) (*models.StockInfo, error) {
	return f.info, f.err
}

func (f *fakeUpstream) GetStockHistory(_ context.Context, _, period string) (*models.StockHistory, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeUpstream) GetStockQuote(_ context.Context, _ string) (*models.StockQuote, error) {
	return f.quote, f.err
}

func (f *fakeUpstream) SearchStocks(_ context.Context, _ string) (*models.StockSearch, error) {
	return f.search, f.err
}

func (f *fakeUpstream) GetScreener(_ context.Context, category models.ScreenerCategory) (*models.ScreenerResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := *f.screener
	res.Category = string(category)
	return &res, nil
}

func prediction(symbol string) models.PricePrediction {
	return models.PricePrediction{
		Symbol: symbol, CurrentPrice: 189.5, PredictedPrice: 195.2, Trend: models.TrendUp,
		ChangePercent: 3.01, ConfidenceScore: 74, DaysPredicted: 3,
		Predictions: []models.PricePredictionPoint{
			{Date: "2025-03-03", PredictedPrice: 190.4, LowerBound: 186.1, UpperBound: 194.7, Confidence: 80},
			{Date: "2025-03-04", PredictedPrice: 192.9, LowerBound: 187.0, UpperBound: 198.8, Confidence: 74},
			{Date: "2025-03-05", PredictedPrice: 195.2, LowerBound: 188.3, UpperBound: 202.1, Confidence: 68},
		},
	}
}

func combined(symbol, recommendation string, confidence float64) *models.CombinedAnalysis {
	return &models.CombinedAnalysis{
		Symbol: symbol,
		Analysis: models.CombinedAnalysisData{
			Prediction: prediction(symbol),
			TechnicalSignals: models.TechnicalAnalysis{
				Symbol: symbol, RSI: 28.4,
				MACD:           models.MACD{MACD: 1.2, Signal: 0.8, Histogram: 0.4},
				Recommendation: models.ActionBuy, Confidence: 71,
			},
			FinalRecommendation: recommendation,
			FinalConfidence:     confidence,
			Reasons:             []string{"RSI oversold", "Prophet forecasts +3.0%"},
		},
	}
}

func newTestRouter(up *fakeUpstream, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	analysis := NewAnalysisHandler(up, nil, m)
	stock := NewStockHandler(up, up, nil)
	screener := NewScreenerHandler(up, nil)
	session := NewSessionHandler(up, dashboard.Options{Interval: time.Hour, RevealDelay: time.Millisecond}, []string{"*"}, nil, m)

	api := r.Group("/api/v1/dashboard")
	api.GET("/analyze/:symbol", analysis.HandleGetAnalysis)
	api.GET("/chart/:symbol", analysis.HandleGetChart)
	api.GET("/stock/:symbol", stock.GetStockCard)
	api.GET("/quote/:symbol", stock.GetQuote)
	api.GET("/search", stock.Search)
	api.GET("/screener/:category", screener.GetScreener)
	api.GET("/ws", session.HandleSession)
	return r
}

func do(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandleGetAnalysis_StrongBuy(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	up := &fakeUpstream{analysis: map[string]*models.CombinedAnalysis{"AAPL": combined("AAPL", "STRONG BUY", 82)}}
	rec := do(t, newTestRouter(up, m), "/api/v1/dashboard/analyze/aapl?days=3")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	rec0 := body["recommendation"].(map[string]any)
	if rec0["tier"] != "positive" || rec0["icon"] != "trending-up" {
		t.Errorf("recommendation: got %v", rec0)
	}
	conf := body["finalConfidence"].(map[string]any)
	if conf["band"] != "strong" {
		t.Errorf("band: got %v", conf["band"])
	}
	rsi := body["rsi"].(map[string]any)
	if rsi["status"] != "Oversold" {
		t.Errorf("rsi status: got %v", rsi["status"])
	}
	chart := body["chart"].(map[string]any)
	if !strings.HasPrefix(chart["bandPath"].(string), "M ") {
		t.Errorf("band path: got %v", chart["bandPath"])
	}
	if got := testutil.ToFloat64(m.AnalysesSucceeded); got != 1 {
		t.Errorf("succeeded metric: got %v", got)
	}
}

func TestHandleGetAnalysis_NotFound(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	rec := do(t, newTestRouter(&fakeUpstream{}, m), "/api/v1/dashboard/analyze/ZZZZ")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decode(t, rec)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "ZZZZ") {
		t.Errorf("error: got %q", msg)
	}
	if strings.Contains(rec.Body.String(), "detail") {
		t.Errorf("raw upstream body leaked: %s", rec.Body.String())
	}
	if got := testutil.ToFloat64(m.AnalysesFailed.WithLabelValues("not_found")); got != 1 {
		t.Errorf("failed metric: got %v", got)
	}
}

func TestHandleGetAnalysis_Errors(t *testing.T) {
	up := &fakeUpstream{analysisFn: func(symbol string) (*models.CombinedAnalysis, error) {
		switch symbol {
		case "RATE":
			return nil, service.NewHTTPError(http.StatusTooManyRequests, "")
		case "DOWN":
			return nil, errors.New("connection refused")
		default:
			bad := combined(symbol, "BUY", 60)
			bad.Analysis.TechnicalSignals.RSI = -1
			bad.Analysis.Prediction.Predictions[0].LowerBound = 500
			return bad, nil
		}
	}}
	r := newTestRouter(up, nil)

	tests := []struct {
		target string
		status int
		msg    string
	}{
		{"/api/v1/dashboard/analyze/RATE", http.StatusTooManyRequests, service.MsgRateLimited},
		{"/api/v1/dashboard/analyze/DOWN", http.StatusBadGateway, service.MsgTransient},
		{"/api/v1/dashboard/analyze/BAD", http.StatusBadRequest, service.MsgInvalidInput},
		{"/api/v1/dashboard/analyze/AAPL?days=0", http.StatusBadRequest, "days must be between 1 and 30"},
		{"/api/v1/dashboard/analyze/AAPL?days=31", http.StatusBadRequest, "days must be between 1 and 30"},
		{"/api/v1/dashboard/analyze/AAPL?days=abc", http.StatusBadRequest, "days must be between 1 and 30"},
		{"/api/v1/dashboard/analyze/%20", http.StatusBadRequest, service.MsgEmptySymbol},
	}
	for _, tt := range tests {
		rec := do(t, r, tt.target)
		if rec.Code != tt.status {
			t.Errorf("%s: got status %d, want %d", tt.target, rec.Code, tt.status)
			continue
		}
		if got := decode(t, rec)["error"]; got != tt.msg {
			t.Errorf("%s: got %q, want %q", tt.target, got, tt.msg)
		}
	}
}

func TestHandleGetChart(t *testing.T) {
	p := prediction("AAPL")
	r := newTestRouter(&fakeUpstream{prediction: &p}, nil)

	rec := do(t, r, "/api/v1/dashboard/chart/AAPL?format=svg&width=640&height=320")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body is not an svg document")
	}

	rec = do(t, r, "/api/v1/dashboard/chart/AAPL")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png: got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not a png")
	}

	if rec := do(t, r, "/api/v1/dashboard/chart/AAPL?format=gif"); rec.Code != http.StatusBadRequest {
		t.Errorf("gif: got status %d", rec.Code)
	}
}

func TestHandleGetChart_EmptySeries(t *testing.T) {
	p := prediction("AAPL")
	p.Predictions = nil
	rec := do(t, newTestRouter(&fakeUpstream{prediction: &p}, nil), "/api/v1/dashboard/chart/AAPL")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type: got %q", ct)
	}
}

func TestGetStockCard(t *testing.T) {
	up := &fakeUpstream{
		info: &models.StockInfo{Symbol: "MSFT", Name: "Microsoft", CurrentPrice: 412, PreviousClose: 400},
		history: &models.StockHistory{Symbol: "MSFT", Period: "3mo", Data: []models.HistoricalData{
			{Date: "2025-01-02", Close: 400}, {Date: "2025-01-03", Close: 412},
		}},
	}
	r := newTestRouter(up, nil)

	rec := do(t, r, "/api/v1/dashboard/stock/msft?period=3mo")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["change"] != 12.0 || body["changePercent"] != 3.0 || body["positive"] != true {
		t.Errorf("change figures: got %v %v %v", body["change"], body["changePercent"], body["positive"])
	}

	if rec := do(t, r, "/api/v1/dashboard/stock/MSFT?period=2w"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad period: got status %d", rec.Code)
	}

	// history failing hides the whole card
	up.historyErr = service.NewHTTPError(http.StatusInternalServerError, "")
	rec = do(t, r, "/api/v1/dashboard/stock/MSFT")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("partial failure: got status %d", rec.Code)
	}
	if _, ok := decode(t, rec)["info"]; ok {
		t.Error("partial card returned")
	}
}

func TestGetQuoteAndSearch(t *testing.T) {
	up := &fakeUpstream{
		quote:  &models.StockQuote{Symbol: "NVDA", Price: 131.2},
		search: &models.StockSearch{Query: "nvidia", Results: []models.SearchResult{{Symbol: "NVDA", Name: "NVIDIA Corporation"}}},
	}
	r := newTestRouter(up, nil)

	if rec := do(t, r, "/api/v1/dashboard/quote/nvda"); rec.Code != http.StatusOK || decode(t, rec)["symbol"] != "NVDA" {
		t.Errorf("quote: got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, "/api/v1/dashboard/search?q=nvidia"); rec.Code != http.StatusOK {
		t.Errorf("search: got %d", rec.Code)
	}
	if rec := do(t, r, "/api/v1/dashboard/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("search without q: got %d", rec.Code)
	}
}

func TestGetScreener(t *testing.T) {
	u1, u2 := 20.0, 11.5
	up := &fakeUpstream{screener: &models.ScreenerResponse{Stocks: []models.ScreenedStock{
		{Symbol: "INTC", ChangePercent: 2.5, Upside: &u1},
		{Symbol: "PFE", ChangePercent: -1.25, Upside: &u2},
		{Symbol: "T", ChangePercent: 0.5},
		{Symbol: "VZ", ChangePercent: 0},
	}}}
	r := newTestRouter(up, nil)

	rec := do(t, r, "/api/v1/dashboard/screener/undervalued")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var res ScreenerSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Category != "undervalued" || res.Count != 4 {
		t.Errorf("header: got %s %d", res.Category, res.Count)
	}
	s := res.Summary
	if s.AdvancingCount != 2 || s.DecliningCount != 1 || s.UnchangedCount != 1 {
		t.Errorf("counts: got %+v", s)
	}
	if s.AverageChangePercent != 0.44 {
		t.Errorf("average change: got %v, want 0.44", s.AverageChangePercent)
	}
	if s.AverageUpside == nil || *s.AverageUpside != 15.75 {
		t.Errorf("average upside: got %v", s.AverageUpside)
	}

	if rec := do(t, r, "/api/v1/dashboard/screener/momentum"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: got %d", rec.Code)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := Summarize(nil); s != (ScreenerSummary{}) {
		t.Errorf("got %+v", s)
	}
}

type wireState struct {
	Symbol   string          `json:"symbol"`
	Loading  bool            `json:"loading"`
	Step     int             `json:"step"`
	Analysis json.RawMessage `json:"analysis"`
	Error    *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type wireEnvelope struct {
	Type    string     `json:"type"`
	Session string     `json:"session"`
	State   *wireState `json:"state"`
	Error   string     `json:"error"`
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wireEnvelope) bool) wireEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var env wireEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(env) {
			return env
		}
	}
}

func TestHandleSession(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	up := &fakeUpstream{analysis: map[string]*models.CombinedAnalysis{"AAPL": combined("AAPL", "STRONG BUY", 82)}}
	srv := httptest.NewServer(newTestRouter(up, m))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/dashboard/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := readUntil(t, conn, func(e wireEnvelope) bool { return e.Type == "session" })
	if hello.Session == "" {
		t.Fatal("missing session id")
	}

	if err := conn.WriteJSON(ClientMessage{Type: "analyze", Symbol: "aapl", Days: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	done := readUntil(t, conn, func(e wireEnvelope) bool {
		return e.Type == "state" && e.State != nil && len(e.State.Analysis) > 0 && string(e.State.Analysis) != "null"
	})
	if done.State.Symbol != "AAPL" || done.State.Loading || done.State.Step != 4 {
		t.Errorf("final state: got %+v", done.State)
	}
	if !strings.Contains(string(done.State.Analysis), `"tier":"positive"`) {
		t.Errorf("analysis: %s", done.State.Analysis)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "analyze", Symbol: "ZZZZ"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	failed := readUntil(t, conn, func(e wireEnvelope) bool {
		return e.Type == "state" && e.State != nil && e.State.Error != nil
	})
	if failed.State.Error.Kind != "not_found" || !strings.Contains(failed.State.Error.Message, "ZZZZ") {
		t.Errorf("error: got %+v", failed.State.Error)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "launch"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	bad := readUntil(t, conn, func(e wireEnvelope) bool { return e.Type == "error" })
	if !strings.Contains(bad.Error, "launch") {
		t.Errorf("error envelope: got %q", bad.Error)
	}

	if got := testutil.ToFloat64(m.WSSessions); got != 1 {
		t.Errorf("open sessions: got %v", got)
	}
}
