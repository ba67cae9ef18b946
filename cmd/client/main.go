package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aeolun/clicklite/pkg/clickup"
	"github.com/aeolun/clicklite/pkg/client"
	"github.com/aeolun/clicklite/pkg/client/ui"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"
)

func main() {
	// Command line flags
	configPath := flag.String("config", client.DefaultConfigPath(), "Path to config file")
	envFile := flag.String("env", ".env", "Path to a .env file with CLICKUP_ACCESS_TOKEN and CLICKUP_WORKSPACE_ID")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. localhost:9464)")
	debug := flag.Bool("debug", false, "Enable debug logging (overrides config)")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("clicklite %s\n", Version)
		return
	}

	// A missing .env is fine; the variables may come from the shell
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", *envFile, err)
	}

	cfg, err := client.LoadClientConfig(*configPath)
	if err != nil {
		if client.HandleConfigError(*configPath, err) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.Logging.Debug = true
	}

	logPath, err := cfg.GetLogPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log path: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.File = logPath
	logger, err := client.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *metricsAddr, logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg client.TOMLConfig, metricsAddr string, logger *zap.Logger) error {
	statePath, err := cfg.GetStateDBPath()
	if err != nil {
		return fmt.Errorf("invalid state path: %w", err)
	}
	state, err := client.OpenState(statePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	if state.GetFirstRun() {
		logger.Info("first run", zap.String("state_db", statePath))
		if err := state.SetFirstRunComplete(); err != nil {
			logger.Debug("failed to record first run", zap.Error(err))
		}
	}

	metrics := clickup.NewMetrics()
	if metricsAddr != "" {
		serveMetrics(metricsAddr, metrics, logger)
	}

	// Missing credentials are shown in the UI, not fatal
	creds, credErr := client.ResolveCredentials(cfg)
	if credErr != nil {
		logger.Warn("credentials incomplete", zap.Error(credErr))
	}

	var api ui.API
	if creds.Token != "" {
		c, err := clickup.NewClient(creds.Token)
		if err != nil {
			return err
		}
		api = c.WithBaseURLs(cfg.ClickUp.APIV2URL, cfg.ClickUp.APIV3URL).
			WithTimeout(cfg.RequestTimeout()).
			WithRequestsPerMinute(cfg.ClickUp.RequestsPerMinute).
			WithChannelPageSize(cfg.ClickUp.ChannelPageSize).
			WithLogger(logger).
			WithMetrics(metrics)
		logger.Info("starting",
			zap.String("version", Version),
			zap.Uint64("workspace_id", creds.WorkspaceID),
			zap.String("session_id", c.SessionID()))
	}

	notifier := client.NewNotifier(cfg.UI.DesktopNotifications, logger)

	model := ui.NewModel(api, state, notifier, logger, ui.Options{
		Version:         Version,
		WorkspaceID:     creds.WorkspaceID,
		RefreshInterval: cfg.RefreshInterval(),
		ShowTimestamps:  cfg.UI.ShowTimestamps,
		TimestampFormat: cfg.UI.TimestampFormat,
		MarkdownStyle:   cfg.UI.MarkdownStyle,
		StartupError:    credErr,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func serveMetrics(addr string, metrics *clickup.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
