package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"climate-dashboard/charts"
	"climate-dashboard/models"
	"climate-dashboard/services"
	"climate-dashboard/storage"
	"climate-dashboard/utils"
)

const sheet = "Resumen 2025"

func buildWorkbook(t *testing.T, sheetName string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", r+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func projectsWorkbook(t *testing.T, firstProject string) []byte {
	return buildWorkbook(t, sheet, [][]any{
		{services.ColProject, services.ColPhase, services.ColProvinceMap, services.ColRequiredBudget,
			services.ColExecutedBudget, services.ColArea, services.ColAvoidedCO2, services.ColProgress, services.ColEndDate},
		{firstProject, "Ejecución", "Pichincha, Azuay", "$1,200.50", 800, 120, 45, 0.6, "2025-12-31"},
		{"Manglares del Golfo", "Planificación", "Guayas", "3,000", 250, 80, 10, 0.2, "2026-03-15"},
	})
}

func newTestServer(t *testing.T, defaultFile string, maxUpload int64) *Server {
	t.Helper()
	logger := utils.Discard()
	theme := services.DefaultTheme()
	loader := storage.NewCachedLoader(storage.NewWorkbookLoader(sheet, logger), storage.NewCache(1), logger)
	renderer := charts.NewRenderer(charts.Options{Background: theme.Card, Foreground: theme.Text})
	return New(loader, services.NewPipeline(theme, logger), renderer, theme, logger, Options{
		DefaultFile:    defaultFile,
		MaxUploadBytes: maxUpload,
	})
}

func writeDefault(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default.xlsx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	return do(h, httptest.NewRequest(http.MethodGet, path, nil))
}

func TestIndexPromptsForUploadWithoutWorkbook(t *testing.T) {
	h := newTestServer(t, filepath.Join(t.TempDir(), "missing.xlsx"), 1<<20).Handler()

	rec := get(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), promptUpload) {
		t.Error("page should ask for an upload")
	}

	if rec := get(h, "/api/dashboard"); rec.Code != http.StatusNotFound {
		t.Errorf("api without workbook: got %d, want 404", rec.Code)
	}
}

func TestIndexUsesBundledWorkbook(t *testing.T) {
	h := newTestServer(t, writeDefault(t, projectsWorkbook(t, "Reforestación Andina")), 1<<20).Handler()

	rec := get(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{services.DashboardTitle, noticeBundled, "/charts/phase-donut.png", "Reforestación Andina → 2025-12-31"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestAPIDashboard(t *testing.T) {
	h := newTestServer(t, writeDefault(t, projectsWorkbook(t, "Reforestación Andina")), 1<<20).Handler()

	rec := get(h, "/api/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Source struct {
			Name    string `json:"name"`
			Bundled bool   `json:"bundled"`
		} `json:"source"`
		Notice    string `json:"notice"`
		Records   int    `json:"records"`
		Dashboard struct {
			Widgets []struct {
				ID    string `json:"id"`
				Empty string `json:"empty"`
			} `json:"widgets"`
		} `json:"dashboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Source.Bundled || resp.Notice != noticeBundled {
		t.Errorf("source: got %+v, notice %q", resp.Source, resp.Notice)
	}
	if resp.Records != 2 {
		t.Errorf("records: got %d, want 2", resp.Records)
	}
	if len(resp.Dashboard.Widgets) != 10 {
		t.Fatalf("widgets: got %d, want 10", len(resp.Dashboard.Widgets))
	}
	for _, w := range resp.Dashboard.Widgets {
		if w.Empty != "" {
			t.Errorf("widget %s empty: %s", w.ID, w.Empty)
		}
	}
}

func TestChartEndpoint(t *testing.T) {
	h := newTestServer(t, writeDefault(t, projectsWorkbook(t, "Reforestación Andina")), 1<<20).Handler()

	rec := get(h, "/charts/phase-donut.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("donut: got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type: got %q", ct)
	}

	for _, path := range []string{"/charts/progress-tiles.png", "/charts/timeline.png", "/charts/nope.png", "/charts/phase-donut"} {
		if rec := get(h, path); rec.Code != http.StatusNotFound {
			t.Errorf("%s: got %d, want 404", path, rec.Code)
		}
	}
}

func TestUploadReplacesBundledWorkbook(t *testing.T) {
	srv := newTestServer(t, writeDefault(t, projectsWorkbook(t, "Reforestación Andina")), 1<<20)
	h := srv.Handler()

	rec := do(h, uploadRequest(t, "nuevos.xlsx", projectsWorkbook(t, "Páramos Vivos")))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload: got %d: %s", rec.Code, rec.Body.String())
	}

	src := srv.upload.get()
	if src == nil || src.Name != "nuevos.xlsx" || src.Bundled || src.ID == "" {
		t.Fatalf("current source: got %+v", src)
	}

	body := get(h, "/").Body.String()
	if strings.Contains(body, noticeBundled) {
		t.Error("bundled notice should disappear after an upload")
	}
	if !strings.Contains(body, "Páramos Vivos → 2025-12-31") {
		t.Error("page should render the uploaded workbook")
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     func(t *testing.T) []byte
		want     int
	}{
		{"garbage", "roto.xlsx", func(*testing.T) []byte { return []byte("not a workbook") }, http.StatusUnprocessableEntity},
		{"wrong sheet", "otro.xlsx", func(t *testing.T) []byte {
			return buildWorkbook(t, "Resumen 2024", [][]any{{services.ColProject}, {"A"}})
		}, http.StatusUnprocessableEntity},
		{"extension", "datos.csv", func(*testing.T) []byte { return []byte("a,b\n1,2\n") }, http.StatusUnsupportedMediaType},
		{"too large", "grande.xlsx", func(*testing.T) []byte { return bytes.Repeat([]byte("x"), 128<<10) }, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "", 64<<10)
			rec := do(srv.Handler(), uploadRequest(t, tt.filename, tt.data(t)))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if srv.upload.get() != nil {
				t.Error("rejected upload must not replace the current workbook")
			}
		})
	}
}

func TestBundledWorkbookWithoutSheet(t *testing.T) {
	data := buildWorkbook(t, "Otra hoja", [][]any{{"x"}, {1}})
	h := newTestServer(t, writeDefault(t, data), 1<<20).Handler()

	rec := get(h, "/")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sheet not found") {
		t.Error("page should explain the load failure")
	}
}

func TestHealthz(t *testing.T) {
	rec := get(newTestServer(t, "", 1<<20).Handler(), "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthz: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestSectionsGroupConsecutiveWidgets(t *testing.T) {
	widgets := []models.Widget{
		{ID: "a", Section: "Uno"},
		{ID: "b", Section: "Dos"},
		{ID: "c", Section: "Dos"},
		{ID: "d", Section: "Tres"},
	}

	got := sections(widgets)
	if len(got) != 3 {
		t.Fatalf("sections: got %d, want 3", len(got))
	}
	if got[1].Title != "Dos" || len(got[1].Widgets) != 2 {
		t.Errorf("second section: got %+v", got[1])
	}
}
