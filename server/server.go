// Package server serves the dashboard page, its charts and the upload form.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"climate-dashboard/charts"
	"climate-dashboard/models"
	"climate-dashboard/services"
	"climate-dashboard/storage"
	"climate-dashboard/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Options configures a Server.
type Options struct {
	DefaultFile    string
	MaxUploadBytes int64
}

// Server renders the dashboard for the current workbook.
type Server struct {
	loader   storage.TableLoader
	pipeline *services.Pipeline
	renderer *charts.Renderer
	theme    *services.Theme
	logger   *utils.Logger
	tmpl     *template.Template
	tracer   trace.Tracer

	defaultFile string
	maxUpload   int64
	upload      slot
}

// New builds a Server. loader is expected to cache by content so repeated
// requests for the same workbook skip parsing.
func New(loader storage.TableLoader, pipeline *services.Pipeline, renderer *charts.Renderer,
	theme *services.Theme, logger *utils.Logger, opts Options) *Server {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"isChart": charts.IsChart,
	}).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		loader:      loader,
		pipeline:    pipeline,
		renderer:    renderer,
		theme:       theme,
		logger:      logger,
		tmpl:        tmpl,
		tracer:      otel.Tracer("climate-dashboard/server"),
		defaultFile: opts.DefaultFile,
		maxUpload:   opts.MaxUploadBytes,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /api/dashboard", s.handleAPI)
	mux.HandleFunc("GET /charts/{file}", s.handleChart)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe runs the HTTP server until ctx ends, then drains in-flight
// requests with a bounded shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	s.logger.Info("[server] listening on %s", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.logger.Info("[server] stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	}
}

// source returns the uploaded workbook, else the bundled one, else nil.
func (s *Server) source() (*Source, error) {
	if src := s.upload.get(); src != nil {
		return src, nil
	}
	return bundledSource(s.defaultFile)
}

// render runs the pipeline on the current workbook. A nil source with a nil
// error means nothing is loaded yet.
func (s *Server) render(ctx context.Context) (*Source, *services.Result, error) {
	src, err := s.source()
	if err != nil || src == nil {
		return nil, nil, err
	}

	ctx, span := s.tracer.Start(ctx, "server.render", trace.WithAttributes(
		attribute.String("source", src.Name),
		attribute.Bool("bundled", src.Bundled),
	))
	defer span.End()

	table, err := s.loader.Load(src.Name, src.Data)
	if err != nil {
		span.RecordError(err)
		return src, nil, err
	}
	return src, s.pipeline.Render(ctx, table), nil
}

// section groups consecutive widgets sharing a heading.
type section struct {
	Title   string
	Widgets []models.Widget
}

func sections(widgets []models.Widget) []section {
	var out []section
	for _, w := range widgets {
		if n := len(out); n > 0 && out[n-1].Title == w.Section {
			out[n-1].Widgets = append(out[n-1].Widgets, w)
			continue
		}
		out = append(out, section{Title: w.Section, Widgets: []models.Widget{w}})
	}
	return out
}
