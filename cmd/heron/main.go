// Heron - Hypertension risk assessment for the point of care.
// Copyright (c) 2025 opensource.health
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/opensource-health/heron/internal/advisory"
	"github.com/opensource-health/heron/internal/api"
	"github.com/opensource-health/heron/internal/bus"
	"github.com/opensource-health/heron/internal/domain"
	"github.com/opensource-health/heron/internal/history"
	"github.com/opensource-health/heron/internal/scoring"
	"github.com/opensource-health/heron/internal/validation"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HERON_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting heron",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg := loadConfig()

	slog.Info("configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"history_max", cfg.History.MaxEntries,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Validation engine over the clinical rule table
	validator := validation.NewEngine(domain.DefaultRuleTable())
	slog.Info("validation engine initialized", "fields", validator.Rules().Len())

	// Risk scoring engine with the standard weight table
	scorer := scoring.NewEngine(scoring.DefaultWeightTable())
	slog.Info("scoring engine initialized")

	// Advisory rule engine
	advisor, err := advisory.NewEngine(10)
	if err != nil {
		slog.Error("failed to initialize advisory engine", "error", err)
		os.Exit(1)
	}
	defer advisor.Close()

	if err := loadAdvisoryRules(cfg, advisor); err != nil {
		slog.Error("failed to load advisory rules", "error", err)
		os.Exit(1)
	}
	slog.Info("advisory engine initialized", "rules_count", advisor.RulesCount())

	// Event bus
	eventBus := bus.NewChannelBus(cfg.EventBus.ChannelBufferSize)
	defer eventBus.Close()
	slog.Info("event bus initialized", "buffer_size", cfg.EventBus.ChannelBufferSize)

	// Session history log + recorder
	sessionLog := history.NewLog(cfg.History.MaxEntries)
	recorder := history.NewRecorder(eventBus, sessionLog)
	if err := recorder.Start(ctx); err != nil {
		slog.Error("failed to start history recorder", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, validator, scorer, advisor, eventBus, sessionLog, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("heron is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	if err := recorder.Stop(); err != nil {
		slog.Error("failed to stop history recorder", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("heron shutdown complete")
}

// loadConfig builds the configuration from defaults plus HERON_*
// environment overrides.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()

	if host := os.Getenv("HERON_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("HERON_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Server.Port = p
		} else {
			slog.Warn("ignoring invalid HERON_PORT", "value", port)
		}
	}
	if max := os.Getenv("HERON_HISTORY_MAX"); max != "" {
		if n, err := strconv.Atoi(max); err == nil && n > 0 {
			cfg.History.MaxEntries = n
		} else {
			slog.Warn("ignoring invalid HERON_HISTORY_MAX", "value", max)
		}
	}
	cfg.AdvisoryRulesPath = os.Getenv("HERON_ADVISORY_RULES")

	return cfg
}

// loadAdvisoryRules loads the rules file when configured, otherwise the
// built-in defaults. Rules can be replaced at runtime via POST /advisories.
func loadAdvisoryRules(cfg *domain.Config, advisor *advisory.Engine) error {
	if cfg.AdvisoryRulesPath != "" {
		rules, err := advisory.LoadRulesFile(cfg.AdvisoryRulesPath)
		if err != nil {
			return err
		}
		slog.Info("loading advisory rules from file", "path", cfg.AdvisoryRulesPath, "count", len(rules))
		return advisor.LoadRules(rules)
	}

	return advisor.LoadRules(advisory.DefaultRules())
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🪶 HERON                    ║")
	fmt.Println("  ║     Hypertension Risk Engine              ║")
	fmt.Println("  ║      Five numbers in, one answer out.     ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /predict           - Validate and score a patient record")
	fmt.Println("    GET  /fields            - Field rules and input hints")
	fmt.Println("    GET  /history           - Recent assessments (session)")
	fmt.Println("    DELETE /history         - Clear session history")
	fmt.Println("    GET  /assessments/{id}  - Get assessment by ID")
	fmt.Println("    GET  /advisories        - List advisory rules")
	fmt.Println("    POST /advisories        - Replace advisory rules")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
