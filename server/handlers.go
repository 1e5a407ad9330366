package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"climate-dashboard/charts"
	"climate-dashboard/models"
	"climate-dashboard/services"
	"climate-dashboard/storage"
)

const (
	uploadField   = "file"
	noticeBundled = "Usando archivo de ejemplo incluido."
	promptUpload  = "Sube un archivo para comenzar…"
)

var uploadExtensions = map[string]bool{".xlsx": true, ".xls": true}

type pageData struct {
	Title       string
	Theme       *services.Theme
	MaxUploadMB int64
	Notice      string
	Prompt      string
	Error       string
	Source      *Source
	Sections    []section
}

func (s *Server) page() pageData {
	return pageData{
		Title:       services.DashboardTitle,
		Theme:       s.theme,
		MaxUploadMB: s.maxUpload >> 20,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.page()
	status := http.StatusOK

	src, res, err := s.render(r.Context())
	switch {
	case err != nil:
		s.logger.Error("[server] render: %v", err)
		status = statusFor(err)
		data.Error = err.Error()
	case src == nil:
		data.Prompt = promptUpload
	default:
		data.Source = src
		if src.Bundled {
			data.Notice = noticeBundled
		}
		data.Sections = sections(res.Dashboard.Widgets)
	}

	s.writePage(w, status, data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		if isTooLarge(err) {
			s.uploadError(w, http.StatusRequestEntityTooLarge, "El archivo supera el tamaño máximo permitido.")
			return
		}
		s.uploadError(w, http.StatusBadRequest, "No se recibió ningún archivo.")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !uploadExtensions[strings.ToLower(filepath.Ext(name))] {
		s.uploadError(w, http.StatusUnsupportedMediaType, "Formato no soportado: usa .xlsx o .xls.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		if isTooLarge(err) {
			s.uploadError(w, http.StatusRequestEntityTooLarge, "El archivo supera el tamaño máximo permitido.")
			return
		}
		s.uploadError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject unreadable workbooks before they replace the current one.
	if _, err := s.loader.Load(name, data); err != nil {
		s.logger.Warn("[server] rejected upload %s: %v", name, err)
		s.uploadError(w, statusFor(err), err.Error())
		return
	}

	src := &Source{ID: uuid.NewString(), Name: name, Data: data}
	s.upload.set(src)
	s.logger.Info("[server] accepted upload %s (%d bytes, id %s)", name, len(data), src.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) uploadError(w http.ResponseWriter, status int, msg string) {
	data := s.page()
	data.Error = msg
	data.Source = s.upload.get()
	s.writePage(w, status, data)
}

type apiResponse struct {
	Source    *Source            `json:"source"`
	Notice    string             `json:"notice,omitempty"`
	Dashboard models.Dashboard   `json:"dashboard"`
	Records   int                `json:"records"`
	Schema    models.Schema      `json:"schema"`
	Summary   *models.Aggregates `json:"aggregates"`
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	src, res, err := s.render(r.Context())
	switch {
	case err != nil:
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	case src == nil:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": promptUpload})
		return
	}

	resp := apiResponse{
		Source:    src,
		Dashboard: res.Dashboard,
		Records:   len(res.Dataset.Records),
		Schema:    res.Dataset.Schema,
		Summary:   res.Aggregates,
	}
	if src.Bundled {
		resp.Notice = noticeBundled
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	id, ok := strings.CutSuffix(file, ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}

	src, res, err := s.render(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if src == nil {
		http.Error(w, promptUpload, http.StatusNotFound)
		return
	}

	widget, ok := res.Dashboard.Widget(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, widget); err != nil {
		if errors.Is(err, charts.ErrEmptyWidget) || errors.Is(err, charts.ErrNotChart) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("[server] chart %s: %v", id, err)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) writePage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		s.logger.Error("[server] template: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps a load failure to an HTTP status: workbook problems are the
// client's, anything else is ours.
func statusFor(err error) int {
	var loadErr *storage.DataLoadError
	if errors.As(err, &loadErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
