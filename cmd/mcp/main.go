package main

import (
	"context"
	"os"

	mcpadapter "github.com/kirillkom/decision-noise/internal/adapters/mcp"
	"github.com/kirillkom/decision-noise/internal/bootstrap"
	"github.com/kirillkom/decision-noise/internal/config"
	"github.com/kirillkom/decision-noise/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := mcpadapter.NewServer(app.Dashboard, version).Run(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
