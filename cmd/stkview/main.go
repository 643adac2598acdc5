// Command stkview runs dashboard analyses from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stkdecider/config"
	"stkdecider/logger"
	"stkdecider/service"
)

// App holds what every subcommand needs.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Client *service.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &App{}
	var configPath, apiURL string
	var verbose bool

	root := &cobra.Command{
		Use:           "stkview",
		Short:         "Stock analysis dashboard in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			zl, err := logger.New(level, true)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			app.Config = cfg
			app.Logger = zl
			app.Client = service.NewClient(cfg.API.BaseURL, zl)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&apiURL, "api", "", "upstream API base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newAnalyzeCmd(app))
	root.AddCommand(newStockCmd(app))
	root.AddCommand(newScreenerCmd(app))
	return root
}
