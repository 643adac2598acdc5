package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stkdecider/models"
	"stkdecider/service"
)

// Screener fetches one upstream screener list. service.Client satisfies it.
type Screener interface {
	GetScreener(ctx context.Context, category models.ScreenerCategory) (*models.ScreenerResponse, error)
}

// ScreenerHandler serves the undervalued, gainers and losers lists
type ScreenerHandler struct {
	screener Screener
	logger   *zap.Logger
}

func NewScreenerHandler(screener Screener, logger *zap.Logger) *ScreenerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenerHandler{screener: screener, logger: logger}
}

// ScreenerSummaryResponse is a screener list with aggregated statistics
type ScreenerSummaryResponse struct {
	Category string                 `json:"category"`
	Count    int                    `json:"count"`
	Stocks   []models.ScreenedStock `json:"stocks"`
	Summary  ScreenerSummary        `json:"summary"`
}

// ScreenerSummary counts the list by price direction
type ScreenerSummary struct {
	AdvancingCount       int      `json:"advancing_count"`
	DecliningCount       int      `json:"declining_count"`
	UnchangedCount       int      `json:"unchanged_count"`
	AverageChangePercent float64  `json:"average_change_percent"`
	AverageUpside        *float64 `json:"average_upside,omitempty"` // undervalued list only
}

// GetScreener returns one screener list with its summary.
// Path parameters:
//   - category: undervalued, gainers or losers
func (h *ScreenerHandler) GetScreener(c *gin.Context) {
	category, ok := models.ParseScreenerCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "category must be one of undervalued, gainers, losers",
		})
		return
	}

	res, err := h.screener.GetScreener(c.Request.Context(), category)
	if err != nil {
		respondError(c, h.logger, service.Classify(err, string(category)))
		return
	}

	stocks := res.Stocks
	if stocks == nil {
		stocks = []models.ScreenedStock{}
	}
	c.JSON(http.StatusOK, ScreenerSummaryResponse{
		Category: string(category),
		Count:    len(stocks),
		Stocks:   stocks,
		Summary:  Summarize(stocks),
	})
}

// Summarize counts advancing and declining stocks and averages their change.
func Summarize(stocks []models.ScreenedStock) ScreenerSummary {
	var s ScreenerSummary
	if len(stocks) == 0 {
		return s
	}

	changeSum := decimal.Zero
	upsideSum := decimal.Zero
	upsides := 0
	for _, st := range stocks {
		switch {
		case st.ChangePercent > 0:
			s.AdvancingCount++
		case st.ChangePercent < 0:
			s.DecliningCount++
		default:
			s.UnchangedCount++
		}
		changeSum = changeSum.Add(decimal.NewFromFloat(st.ChangePercent))
		if st.Upside != nil {
			upsideSum = upsideSum.Add(decimal.NewFromFloat(*st.Upside))
			upsides++
		}
	}

	s.AverageChangePercent = changeSum.Div(decimal.NewFromInt(int64(len(stocks)))).Round(2).InexactFloat64()
	if upsides > 0 {
		avg := upsideSum.Div(decimal.NewFromInt(int64(upsides))).Round(2).InexactFloat64()
		s.AverageUpside = &avg
	}
	return s
}
