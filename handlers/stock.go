package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stkdecider/models"
	"stkdecider/service"
)

// Lookup covers the quote and search endpoints. service.Client satisfies it.
type Lookup interface {
	GetStockQuote(ctx context.Context, symbol string) (*models.StockQuote, error)
	SearchStocks(ctx context.Context, query string) (*models.StockSearch, error)
}

// StockHandler serves stock cards, quotes and symbol search.
type StockHandler struct {
	source service.StockSource
	lookup Lookup
	logger *zap.Logger
}

// NewStockHandler creates a stock handler. source may be the upstream API
// client or a PolygonSource.
func NewStockHandler(source service.StockSource, lookup Lookup, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{source: source, lookup: lookup, logger: logger}
}

// GetStockCard returns profile, price history and day change for a symbol
// Query parameters:
//   - period: history period code, 1d to max (default: 1mo)
func (h *StockHandler) GetStockCard(c *gin.Context) {
	symbol := c.Param("symbol")
	card, err := service.StockCard(c.Request.Context(), h.source, symbol, c.DefaultQuery("period", service.DefaultPeriod))
	if err != nil {
		respondError(c, h.logger, service.Classify(err, strings.ToUpper(symbol)))
		return
	}
	c.JSON(http.StatusOK, card)
}

// GetQuote returns the live quote for a symbol.
func (h *StockHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		respondError(c, h.logger, service.EmptySymbol())
		return
	}
	quote, err := h.lookup.GetStockQuote(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, h.logger, service.Classify(err, symbol))
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Search looks up symbols by name or ticker
// Query parameters:
//   - q: search text (required)
func (h *StockHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}
	res, err := h.lookup.SearchStocks(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, service.Classify(err, q))
		return
	}
	c.JSON(http.StatusOK, res)
}
