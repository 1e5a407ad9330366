package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"climate-dashboard/export"
	"climate-dashboard/services"
	"climate-dashboard/snapshot"
	"climate-dashboard/utils"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.ListenAddr, "Address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.server().ListenAndServe(ctx, *addr)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	file := fs.String("file", a.cfg.DefaultFile, "Workbook to export (.xlsx or .xls)")
	out := fs.String("out", a.cfg.OutputDir, "Output directory")
	quiet := fs.Bool("quiet", false, "Do not print the project summary")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}
	table, err := a.loader.Load(filepath.Base(*file), data)
	if err != nil {
		return err
	}
	res := a.pipeline.Render(ctx, table)

	exporter := export.New(a.renderer, a.cfg.RenderWorkers, a.logger)
	sum, err := exporter.Export(ctx, res, *out)
	if err != nil {
		return err
	}

	if !*quiet {
		insights := services.NewInsightService(a.logger)
		insights.Print(os.Stdout, insights.Generate(res))
	}
	fmt.Printf("  Done. %d records, %d charts → %s\n\n", sum.Records, len(sum.Charts), sum.Dir)
	return nil
}

func runSnapshot(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	target := fs.String("url", "", "Dashboard URL; empty serves the dashboard in-process")
	out := fs.String("out", filepath.Join(a.cfg.OutputDir, "dashboard.png"), "Screenshot path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *target == "" {
		url, stop, err := serveLocal(a)
		if err != nil {
			return err
		}
		defer stop()
		*target = url
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	capturer := snapshot.New(snapshot.Options{
		ChromeBin: a.cfg.ChromeBin,
		Timeout:   a.cfg.SnapshotTimeout,
	}, &utils.RetryConfig{
		MaxAttempts: a.cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      a.logger,
	}, a.logger)

	if err := capturer.CaptureToFile(ctx, *target, *out); err != nil {
		return err
	}
	a.logger.Info("Screenshot saved to %s", *out)
	return nil
}

// serveLocal starts the dashboard on a loopback port and returns its URL.
func serveLocal(a *app) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{Handler: a.server().Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("[snapshot] local server: %v", err)
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String() + "/", stop, nil
}
