package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"stkdecider/models"
)

const DefaultBaseURL = "http://localhost:8000"

const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 7

	maxErrorBody = 4 << 10
)

type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func NewHTTPError(statusCode int, body string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       body,
	}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %d: %v", e.StatusCode, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("upstream %d %s: %s", e.StatusCode, e.Status, e.Body)
	}
	return fmt.Sprintf("upstream %d %s", e.StatusCode, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Observer is notified of every upstream call.
type Observer interface {
	ObserveUpstream(endpoint string, d time.Duration, err error)
}

// Client talks to the market-data and ML API.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Logger   *zap.Logger
	Observer Observer
}

// NewClient has no request timeout: a long model run is allowed to take as
// long as it needs, cancellation comes from the caller's context.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Logger:  logger,
	}
}

func (c *Client) GetStockInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	var out models.StockInfo
	if err := c.get(ctx, "stock_info", "/api/stocks/info/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStockHistory(ctx context.Context, symbol, period string) (*models.StockHistory, error) {
	var out models.StockHistory
	q := url.Values{"period": {period}}
	if err := c.get(ctx, "stock_history", "/api/stocks/history/"+url.PathEscape(symbol), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	var out models.StockQuote
	if err := c.get(ctx, "stock_quote", "/api/stocks/quote/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SearchStocks(ctx context.Context, query string) (*models.StockSearch, error) {
	var out models.StockSearch
	if err := c.get(ctx, "stock_search", "/api/stocks/search", url.Values{"q": {query}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetScreener fetches one of the screener lists.
func (c *Client) GetScreener(ctx context.Context, category models.ScreenerCategory) (*models.ScreenerResponse, error) {
	var out models.ScreenerResponse
	if err := c.get(ctx, "screener_"+string(category), "/api/screener/"+string(category), nil, &out); err != nil {
		return nil, err
	}
	if out.Category == "" {
		out.Category = string(category)
	}
	if out.Count == 0 {
		out.Count = len(out.Stocks)
	}
	return &out, nil
}

func (c *Client) GetUndervalued(ctx context.Context) (*models.ScreenerResponse, error) {
	return c.GetScreener(ctx, models.CategoryUndervalued)
}

func (c *Client) GetTopGainers(ctx context.Context) (*models.ScreenerResponse, error) {
	return c.GetScreener(ctx, models.CategoryGainers)
}

func (c *Client) GetTopLosers(ctx context.Context) (*models.ScreenerResponse, error) {
	return c.GetScreener(ctx, models.CategoryLosers)
}

func (c *Client) PredictStockPrice(ctx context.Context, symbol string, days int) (*models.PricePrediction, error) {
	var out models.PricePrediction
	if err := c.get(ctx, "ml_predict", "/api/ml/predict/"+url.PathEscape(symbol), daysQuery(days), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTechnicalSignals(ctx context.Context, symbol string) (*models.TechnicalAnalysis, error) {
	var out models.TechnicalAnalysis
	if err := c.get(ctx, "ml_signals", "/api/ml/signals/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCombinedAnalysis(ctx context.Context, symbol string, days int) (*models.CombinedAnalysis, error) {
	var out models.CombinedAnalysis
	if err := c.get(ctx, "ml_analyze", "/api/ml/analyze/"+url.PathEscape(symbol), daysQuery(days), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func daysQuery(days int) url.Values {
	return url.Values{"days": {strconv.Itoa(days)}}
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.Observer != nil {
			c.Observer.ObserveUpstream(endpoint, time.Since(start), err)
		}
	}()

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer res.Body.Close()

	c.Logger.Debug("upstream response",
		zap.String("endpoint", endpoint),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return NewHTTPError(res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
