package main

import (
	"context"
	"fmt"
	"os"

	"storyduet/internal/config"
	"storyduet/internal/debug"
	"storyduet/internal/llm"
	"storyduet/internal/logging"
	"storyduet/internal/observability"
)

// app bundles the wired-up services every subcommand works against.
type app struct {
	cfg   config.Config
	debug *debug.Logger
	llm   *llm.Service
}

func createApp(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	enabled := debugMode || os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"
	debugLogger := debug.NewLogger(enabled, cfg.DebugLogPath)

	tracingConfig := observability.LoadConfigFromEnv()
	tracerProvider, err := observability.InitTracing(ctx, tracingConfig)
	if err != nil {
		debugLogger.Printf("Failed to initialize tracing: %v", err)
	} else if tracerProvider.IsEnabled() {
		debugLogger.Println("OpenTelemetry tracing initialized and enabled")
	} else {
		debugLogger.Println("OpenTelemetry tracing disabled (set OTEL_TRACES_ENABLED=true to enable)")
	}

	calls, err := logging.Open(cfg.CallLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open call log: %w", err)
	}

	service := llm.NewService(cfg.BaseURL, cfg.APIKey, debugLogger, calls)

	cleanup := func() {
		calls.Close()
		if tracerProvider != nil {
			tracerProvider.Shutdown(context.Background())
		}
	}

	return &app{
		cfg:   cfg,
		debug: debugLogger,
		llm:   service,
	}, cleanup, nil
}
