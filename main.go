package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"climate-dashboard/charts"
	"climate-dashboard/config"
	"climate-dashboard/server"
	"climate-dashboard/services"
	"climate-dashboard/storage"
	"climate-dashboard/telemetry"
	"climate-dashboard/utils"
)

const usage = `usage: climate-dashboard [command] [flags]

commands:
  serve     serve the dashboard over HTTP (default)
  export    write dashboard.json, records.csv and chart PNGs
  snapshot  save a full-page screenshot of the dashboard
`

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	theme    *services.Theme
	loader   storage.TableLoader
	pipeline *services.Pipeline
	renderer *charts.Renderer
}

func newApp(cfg *config.Config, logger *utils.Logger) (*app, error) {
	theme, err := services.LoadTheme(cfg.ThemeFile)
	if err != nil {
		return nil, err
	}

	loader := storage.NewCachedLoader(
		storage.NewWorkbookLoader(cfg.SheetName, logger),
		storage.NewCache(cfg.CacheEntries),
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		theme:    theme,
		loader:   loader,
		pipeline: services.NewPipeline(theme, logger),
		renderer: charts.NewRenderer(charts.Options{Background: theme.Card, Foreground: theme.Text}),
	}, nil
}

func (a *app) server() *server.Server {
	return server.New(a.loader, a.pipeline, a.renderer, a.theme, a.logger, server.Options{
		DefaultFile:    a.cfg.DefaultFile,
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
	})
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		return 1
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Settings{Endpoint: cfg.OTelEndpoint, Enabled: cfg.OTelEnabled})
	if err != nil {
		logger.Warn("Tracing disabled: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Tracing shutdown: %v", err)
		}
	}()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to start: %v", err)
		return 1
	}

	logger.Info("=== Climate project dashboard: %s ===", cmd)
	logger.Debug("Config: sheet %q | default file %s | cache %d | workers %d",
		cfg.SheetName, cfg.DefaultFile, cfg.CacheEntries, cfg.RenderWorkers)

	switch cmd {
	case "serve":
		err = runServe(ctx, a, args)
	case "export":
		err = runExport(ctx, a, args)
	case "snapshot":
		err = runSnapshot(ctx, a, args)
	case "help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		logger.Error("%s failed: %v", cmd, err)
		return 1
	}
	return 0
}
