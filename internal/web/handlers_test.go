package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/exposures/internal/config"
)

const csvHeader = "lens_name,focal_length,date,iso,aperture,shutter_speed,exposure_compensation\n"

const validCSV = csvHeader +
	"XF 35mm,35,2023-05-14,400,2.8,1/250,-1 1/3\n" +
	"XF 16mm,16,2023-05-15,100,8,2\",\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: 50 * time.Millisecond},
		Reader:   config.ReaderConfig{SkipBOM: true, SanitizeUTF8: true},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s := NewServer(cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// multipartRequest builds a POST with content in the given form field.
func multipartRequest(t *testing.T, path, field, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "exposures.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	io.WriteString(fw, content)
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func csvRequest(path, content string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(content))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// ---- Read API Tests ----

func TestReadExposures_Multipart(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, multipartRequest(t, "/api/exposures", "file", validCSV))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp ReadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := uuid.Parse(resp.ReadID); err != nil {
		t.Errorf("read_id %q is not a UUID: %v", resp.ReadID, err)
	}
	if resp.Count != 2 || len(resp.Records) != 2 {
		t.Fatalf("count = %d, records = %d, want 2", resp.Count, len(resp.Records))
	}

	first := resp.Records[0]
	if first.LensName != "XF 35mm" || first.ISO != 400 {
		t.Errorf("records[0] = %+v", first)
	}
	if c := first.ExposureCompensation; c == nil || math.Abs(*c-(-1-1.0/3)) > 1e-9 {
		t.Errorf("records[0].ExposureCompensation = %v, want -1.333...", c)
	}
	if resp.Records[1].ShutterSpeed != `2"` || resp.Records[1].ExposureCompensation != nil {
		t.Errorf("records[1] = %+v", resp.Records[1])
	}
}

func TestReadExposures_RawBody(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, csvRequest("/api/exposures", "\ufeff"+validCSV))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp ReadResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestReadExposures_HeaderOnly(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, csvRequest("/api/exposures", csvHeader))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"records":[]`) {
		t.Errorf("body = %s, want an empty records array", rec.Body.String())
	}
}

func TestReadExposures_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
		wantKind   string
		wantLine   int
	}{
		{
			name: "invalid shutter speed",
			req: func(t *testing.T) *http.Request {
				return csvRequest("/api/exposures", validCSV+"XF 23mm,23,2023-05-16,200,4,slow,\n")
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXP001",
			wantKind:   "invalid_shutter_speed",
			wantLine:   4,
		},
		{
			name: "too many compensation terms",
			req: func(t *testing.T) *http.Request {
				return csvRequest("/api/exposures", csvHeader+"XF 23mm,23,2023-05-16,200,4,1/60,1 2 3\n")
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EXP003",
			wantKind:   "invalid_exposure_compensation",
			wantLine:   2,
		},
		{
			name: "bad number",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/exposures", "file", csvHeader+"XF 23mm,23,2023-05-16,high,4,1/60,\n")
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VAL001",
			wantKind:   "failed_to_parse",
			wantLine:   2,
		},
		{
			name: "missing header column",
			req: func(t *testing.T) *http.Request {
				return csvRequest("/api/exposures", "lens_name,iso\nXF,100\n")
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE002",
			wantKind:   "invalid_csv",
		},
		{
			name: "no file field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/exposures", "attachment", validCSV)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name: "empty multipart file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/exposures", "file", "")
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE005",
		},
		{
			name: "empty body",
			req: func(t *testing.T) *http.Request {
				return csvRequest("/api/exposures", "")
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE005",
		},
		{
			name: "json body",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/exposures", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "FILE006",
		},
		{
			name: "broken multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/exposures", strings.NewReader("garbage"))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
				return req
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig())

			rec := serve(s, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if resp.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", resp.Line, tt.wantLine)
			}
			if resp.Message == "" || resp.ReadID == "" {
				t.Errorf("response = %+v, want message and read_id", resp)
			}
		})
	}
}

func TestReadExposures_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 128
	s := newTestServer(t, cfg)

	big := csvHeader + strings.Repeat("XF 35mm,35,2023-05-14,400,2.8,1/250,\n", 20)
	rec := serve(s, csvRequest("/api/exposures", big))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body.String())
	}
	resp := decodeError(t, rec)
	if resp.Code != "FILE001" {
		t.Errorf("code = %q, want FILE001", resp.Code)
	}
	if resp.Kind != "" || resp.Line != 0 {
		t.Errorf("kind = %q, line = %d, want neither for an oversized body", resp.Kind, resp.Line)
	}
}

func TestReadExposures_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	s := newTestServer(t, cfg)

	if err := s.reads.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer s.reads.Release()

	rec := serve(s, csvRequest("/api/exposures", validCSV))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "UPL003" {
		t.Errorf("code = %q, want UPL003", resp.Code)
	}
}

func TestReadExposures_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := newTestServer(t, cfg)

	if rec := serve(s, csvRequest("/api/exposures", validCSV)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	req := csvRequest("/api/exposures", validCSV)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}

	// The page routes stay public.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("index: status = %d, want 200", rec.Code)
	}
}

func TestReadExposures_UploadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	s := newTestServer(t, cfg)

	if rec := serve(s, csvRequest("/api/exposures", validCSV)); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}

	rec := serve(s, csvRequest("/api/exposures", validCSV))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", resp.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}

	// Non-reading routes only count against the general limit.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}
}

// ---- Page Tests ----

func TestUploadPage_RendersTable(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := multipartRequest(t, "/upload", "file", validCSV)
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") || !strings.Contains(body, "2 records read.") {
		t.Errorf("body = %s, want a records table", body)
	}
}

func TestUploadPage_RendersErrorAlert(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := multipartRequest(t, "/upload", "file", csvHeader+"XF 23mm,23,2023-05-16,200,4,slow,\n")
	req.Header.Set("HX-Request", "true")
	rec := serve(s, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`role="alert"`, "Code: EXP001", "(line 2)"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %s", want, body)
		}
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<form id="upload-form"`) {
		t.Error("index page has no upload form")
	}

	for header, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": contentSecurityPolicy,
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestIndex_CSPDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableCSP = false
	s := newTestServer(t, cfg)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("Content-Security-Policy = %q, want none", got)
	}
}

// ---- Utility Route Tests ----

func TestDownloadTemplate(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != csvHeader {
		t.Errorf("body = %q, want %q", rec.Body.String(), csvHeader)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "exposures_template.csv") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status string            `json:"status"`
		Reads  ReadLimiterStatus `json:"reads"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Reads.MaxConcurrent != 2 || resp.Reads.Available != 2 {
		t.Errorf("health = %+v", resp)
	}
}
