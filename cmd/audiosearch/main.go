// Command audiosearch is a minimal demo entrypoint wiring the search
// federation core together: it loads indexer configs from the environment,
// builds the manager and facade, runs one search, and prints the outcome.
// The HTTP/CLI route layer and durable config storage are external
// collaborators; this binary exists to exercise the wiring, not to
// be the production service surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"shelfsearch/audiosearch/internal/adapter/registry"
	"shelfsearch/audiosearch/internal/config"
	"shelfsearch/audiosearch/internal/domain"
	"shelfsearch/audiosearch/internal/manager"
	"shelfsearch/audiosearch/internal/metrics"
	"shelfsearch/audiosearch/internal/search"
	"shelfsearch/audiosearch/internal/telemetry"
)

func main() {
	title := flag.String("title", "", "audiobook title to search for")
	author := flag.String("author", "", "audiobook author to search for")
	mode := flag.String("mode", "manual", "search mode: manual or automatic")
	flag.Parse()

	engineCfg := config.LoadEngineConfig()
	logger := newLogger(engineCfg.LogLevel, engineCfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "audiosearch")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	mgr, err := manager.New(config.EnvLoader{}, registry.New(), manager.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build indexer manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine := search.New(mgr, search.WithLogger(logger), search.WithHistorySize(engineCfg.HistorySize))

	query := domain.SearchQuery{
		Title:  strings.TrimSpace(*title),
		Author: strings.TrimSpace(*author),
		Mode:   domain.SearchMode(strings.ToLower(strings.TrimSpace(*mode))),
	}
	if query.Mode != domain.ModeAutomatic {
		query.Mode = domain.ModeManual
	}

	ctx := context.Background()
	outcome := engine.SearchForAudiobook(ctx, query)
	if !outcome.Success {
		logger.Error("search failed", slog.String("error", outcome.Error))
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		logger.Error("failed to encode outcome", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
