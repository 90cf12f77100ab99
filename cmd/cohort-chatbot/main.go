// Package main implements the entry point for the cohort discovery chatbot.
// The chatbot turns natural-language cohort questions into Guppy GraphQL
// queries over the PCDC data commons.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/catalog"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/config"
	gatewayhttp "github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/gateway/http"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/graphql"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/history"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/llm"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/metric"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/pipeline"
)

const (
	Version = "0.1.0"
	appName = "cohort-chatbot"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file (defaults apply when empty)")
	validateOnly := flag.Bool("validate", false, "validate configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if *validateOnly {
		logger.Info("configuration is valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()
	metrics := registry.CoreMetrics()

	loader := catalog.NewLoader(cfg.Catalog.Path, logger)
	index, err := catalog.NewIndex(loader, catalog.IndexOptions{
		MinTermLength:  cfg.Catalog.MinTermLength,
		MaxCandidates:  cfg.Catalog.MaxCandidates,
		FuzzyThreshold: cfg.Catalog.FuzzyThreshold,
	}, logger)
	if err != nil {
		return err
	}
	if err := index.Build(false); err != nil {
		return err
	}
	logger.Info("catalog loaded", "fields", len(index.Paths()))

	client := llm.NewClient(llm.ClientConfig{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		MaxAttempts:       cfg.LLM.MaxAttempts,
	}, logger)
	if client == nil {
		logger.Warn("no LLM API key configured, using rule-based parsing only")
	}

	p := pipeline.New(
		index,
		llm.NewNormalizer(llm.Instrument(client, metrics, "normalize"), logger),
		llm.NewDisambiguator(llm.Instrument(client, metrics, "disambiguate"), logger),
		graphql.NewBuilder(cfg.Guppy.QueryLimit, logger),
		metrics,
		logger,
	)

	composer := graphql.NewComposer(cfg.Guppy.Endpoint, cfg.Guppy.Timeout.Std(), metrics, logger)

	sessions, err := history.NewStore(ctx, history.StoreConfig{
		SessionTTL:      cfg.History.SessionTTL.Std(),
		CleanupInterval: cfg.History.CleanupInterval.Std(),
		Workers:         cfg.History.Workers,
		QueueSize:       cfg.History.QueueSize,
	}, nil, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Close(5 * time.Second) }()

	server := gatewayhttp.NewServer(cfg.Server, p, composer, sessions, registry, logger)

	if cfg.Catalog.GitopsPath != "" {
		tabs, anchor, err := catalog.LoadTabs(cfg.Catalog.GitopsPath)
		if err != nil {
			return err
		}
		server.ConfigureAggregations(graphql.NewBuilder(cfg.Guppy.QueryLimit, logger), tabs, anchor)
		logger.Info("aggregation panel configured", "tabs", len(tabs), "anchored", anchor != nil)
	}

	logger.Info("starting", "app", appName, "version", Version, "guppy", cfg.Guppy.Endpoint)
	return server.ListenAndServe(ctx)
}
