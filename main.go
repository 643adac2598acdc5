package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"stkdecider/config"
	"stkdecider/dashboard"
	"stkdecider/handlers"
	"stkdecider/logger"
	"stkdecider/metrics"
	"stkdecider/routes"
	"stkdecider/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	client := service.NewClient(cfg.API.BaseURL, zl)
	client.Observer = m

	// Stock cards come from polygon when a key is configured
	var stockSource service.StockSource = client
	if cfg.Polygon.APIKey != "" {
		stockSource = service.NewPolygonSource(cfg.Polygon.APIKey, zl)
		zl.Info("stock cards served from polygon")
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	sessionOpts := dashboard.Options{
		Steps:       cfg.Progress.Steps,
		Interval:    cfg.Interval(),
		RevealDelay: cfg.RevealDelay(),
	}
	routes.SetupRoutes(router, cfg.Server.CORSOrigins, routes.Handlers{
		Analysis: handlers.NewAnalysisHandler(client, zl, m),
		Stock:    handlers.NewStockHandler(stockSource, client, zl),
		Screener: handlers.NewScreenerHandler(client, zl),
		Session:  handlers.NewSessionHandler(client, sessionOpts, cfg.Server.CORSOrigins, zl, m),
		Metrics:  m,
	})

	addr := ":" + cfg.Server.Port
	zl.Info("starting server",
		zap.String("addr", addr),
		zap.String("upstream", cfg.API.BaseURL),
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1/dashboard", cfg.Server.Port)))
	if err := router.Run(addr); err != nil {
		zl.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
