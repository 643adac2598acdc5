package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stkdecider/format"
	"stkdecider/models"
	"stkdecider/service"
)

func newStockCmd(app *App) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stock <symbol>",
		Short: "Stock profile, day change and price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src service.StockSource = app.Client
			if app.Config.Polygon.APIKey != "" {
				src = service.NewPolygonSource(app.Config.Polygon.APIKey, app.Logger)
			}
			card, err := service.StockCard(cmd.Context(), src, args[0], period)
			if err != nil {
				return userError(app, err, args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), format.StockCard(card))
			return nil
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", service.DefaultPeriod, "history period (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max)")
	return cmd
}

func newScreenerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "screener <undervalued|gainers|losers>",
		Short:     "List screened stocks",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.CategoryUndervalued), string(models.CategoryGainers), string(models.CategoryLosers)},
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ok := models.ParseScreenerCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category %q", args[0])
			}
			res, err := app.Client.GetScreener(cmd.Context(), category)
			if err != nil {
				return userError(app, err, args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), format.ScreenerTable(res))
			return nil
		},
	}
}

// userError logs the raw failure and returns only the user message.
func userError(app *App, err error, subject string) error {
	ue := service.Classify(err, strings.ToUpper(subject))
	app.Logger.Debug("command failed", zap.Stringer("kind", ue.Kind), zap.Error(err))
	return errors.New(ue.Message)
}
