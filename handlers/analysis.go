package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stkdecider/metrics"
	"stkdecider/models"
	"stkdecider/service"
	"stkdecider/visual"
)

// AnalysisSource is the part of the upstream API the analysis endpoints use.
// service.Client satisfies it.
type AnalysisSource interface {
	GetCombinedAnalysis(ctx context.Context, symbol string, days int) (*models.CombinedAnalysis, error)
	PredictStockPrice(ctx context.Context, symbol string, days int) (*models.PricePrediction, error)
}

type AnalysisHandler struct {
	source  AnalysisSource
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewAnalysisHandler(source AnalysisSource, logger *zap.Logger, m *metrics.Metrics) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{source: source, logger: logger, metrics: m}
}

// HandleGetAnalysis returns the composed dashboard view for a symbol
// Query parameters:
//   - days: forecast horizon, 1 to 30 (default: 7)
func (h *AnalysisHandler) HandleGetAnalysis(c *gin.Context) {
	symbol, days, ue := symbolAndDays(c)
	if ue != nil {
		respondError(c, h.logger, ue)
		return
	}
	h.metrics.Requested()

	res, err := h.source.GetCombinedAnalysis(c.Request.Context(), symbol, days)
	if err == nil {
		var view *visual.AnalysisView
		view, err = visual.Compose(res)
		if err == nil {
			if !view.Chart.TrendConsistent {
				h.logger.Warn("trend disagrees with change percent",
					zap.String("symbol", symbol),
					zap.Float64("change_percent", res.Analysis.Prediction.ChangePercent))
			}
			h.metrics.Succeeded()
			c.JSON(http.StatusOK, view)
			return
		}
	}

	ue = service.Classify(err, symbol)
	h.metrics.Failed(ue.Kind.String())
	respondError(c, h.logger, ue)
}

// HandleGetChart renders the price forecast as an image
// Query parameters:
//   - days: forecast horizon, 1 to 30 (default: 7)
//   - format: png or svg (default: png)
//   - width, height: image size in pixels (default: 900x400)
func (h *AnalysisHandler) HandleGetChart(c *gin.Context) {
	symbol, days, ue := symbolAndDays(c)
	if ue != nil {
		respondError(c, h.logger, ue)
		return
	}

	format, err := visual.ParseChartFormat(c.DefaultQuery("format", string(visual.ChartPNG)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	width := boundedInt(c.Query("width"), visual.DefaultChartWidth, 200, 4000)
	height := boundedInt(c.Query("height"), visual.DefaultChartHeight, 150, 3000)

	pred, err := h.source.PredictStockPrice(c.Request.Context(), symbol, days)
	if err != nil {
		respondError(c, h.logger, service.Classify(err, symbol))
		return
	}

	// render into a buffer so a failed render still gets a JSON error
	var buf bytes.Buffer
	if err := visual.RenderChart(&buf, pred, format, width, height); err != nil {
		respondError(c, h.logger, service.Classify(err, symbol))
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func symbolAndDays(c *gin.Context) (string, int, *service.UserError) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return "", 0, service.EmptySymbol()
	}

	days := service.DefaultDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < service.MinDays || n > service.MaxDays {
			return "", 0, &service.UserError{
				Kind:    service.KindInvalidInput,
				Message: fmt.Sprintf("days must be between %d and %d", service.MinDays, service.MaxDays),
			}
		}
		days = n
	}
	return symbol, days, nil
}

func boundedInt(v string, def, lo, hi int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// respondError answers with the user-facing message only. The cause is logged.
func respondError(c *gin.Context, logger *zap.Logger, ue *service.UserError) {
	if ue.Cause != nil {
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.Stringer("kind", ue.Kind),
			zap.Error(ue.Cause),
		}
		if ue.Kind == service.KindTransient || ue.Kind == service.KindInvalidInput {
			logger.Warn("request failed", fields...)
		} else {
			logger.Info("request failed", fields...)
		}
	}
	c.JSON(ue.Kind.HTTPStatus(), gin.H{"error": ue.Message, "kind": ue.Kind})
}
