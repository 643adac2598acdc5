package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"stkdecider/dashboard"
	"stkdecider/format"
	"stkdecider/models"
	"stkdecider/service"
	"stkdecider/visual"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		days      int
		jsonOut   bool
		chartPath string
	)
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Forecast, technical signals and final recommendation for a symbol",
		Example: `  stkview analyze AAPL
  stkview analyze MSFT --days 14 --chart msft.png
  stkview analyze NVDA --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ctrl, err := dashboard.NewController(app.Client, dashboard.Options{
				Steps:       app.Config.Progress.Steps,
				Interval:    app.Config.Interval(),
				RevealDelay: app.Config.RevealDelay(),
				Logger:      app.Logger,
			})
			if err != nil {
				return err
			}
			defer ctrl.Close()

			progressOut := cmd.ErrOrStderr()
			if jsonOut {
				progressOut = io.Discard
			}
			st, err := runAnalysis(ctx, ctrl, args[0], days, progressOut)
			if err != nil {
				return err
			}

			if chartPath != "" {
				if err := writeChart(chartPath, &st.Raw.Analysis.Prediction); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "chart written to %s\n", chartPath)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.Marshal(st.Analysis)
				if err != nil {
					return err
				}
				_, err = out.Write(pretty.Pretty(data))
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, format.AnalysisCard(st.Analysis))
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", service.DefaultDays, fmt.Sprintf("forecast horizon (%d-%d)", service.MinDays, service.MaxDays))
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the composed view as JSON")
	cmd.Flags().StringVar(&chartPath, "chart", "", "write the forecast chart to this .png or .svg file")
	return cmd
}

// runAnalysis submits one analysis and prints each loading step until the
// result is revealed or the request fails.
func runAnalysis(ctx context.Context, ctrl *dashboard.Controller, symbol string, days int, w io.Writer) (dashboard.State, error) {
	states, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	id := ctrl.Submit(symbol, days)
	lastStep := -1
	for {
		select {
		case <-ctx.Done():
			return dashboard.State{}, ctx.Err()
		case st, ok := <-states:
			if !ok {
				return dashboard.State{}, errors.New("analysis closed")
			}
			if st.RequestID != id {
				continue
			}
			if st.Loading {
				if st.LoadingStep != nil && st.Step != lastStep {
					fmt.Fprintln(w, format.ProgressLine(*st.LoadingStep))
					lastStep = st.Step
				}
				continue
			}
			if st.Err != nil {
				return st, errors.New(st.Err.Message)
			}
			return st, nil
		}
	}
}

func writeChart(path string, p *models.PricePrediction) error {
	chartFormat := visual.ChartPNG
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		chartFormat = visual.ChartSVG
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := visual.RenderChart(f, p, chartFormat, visual.DefaultChartWidth, visual.DefaultChartHeight); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
