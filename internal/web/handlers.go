package web

import (
	"encoding/csv"
	"net/http"

	"github.com/JonMunkholm/exposures/internal/exposure"
	"github.com/JonMunkholm/exposures/internal/logging"
	"github.com/JonMunkholm/exposures/internal/web/templates"
)

// ReadResponse is the JSON body of a successful read.
type ReadResponse struct {
	ReadID  string            `json:"read_id"`
	Count   int               `json:"count"`
	Records []exposure.Record `json:"records"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	params := templates.UploadPageParams{
		Columns:     exposure.Columns,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}
	if err := templates.UploadPage(params).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleUploadPage reads the uploaded file and renders the records table.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	result, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, result.ReadID)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	params := templates.ResultsParams{ReadID: result.ReadID, Records: result.Records}
	if err := templates.RecordsTable(params).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render records", "error", err)
	}
}

// handleReadExposures reads the uploaded file and returns the records as JSON.
func (s *Server) handleReadExposures(w http.ResponseWriter, r *http.Request) {
	result, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, result.ReadID)
		return
	}

	writeJSON(w, ReadResponse{
		ReadID:  result.ReadID,
		Count:   len(result.Records),
		Records: result.Records,
	})
}

// handleDownloadTemplate returns a header-only CSV with the expected columns.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="exposures_template.csv"`)

	csvWriter := csv.NewWriter(w)
	csvWriter.Write(exposure.Columns)
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		logging.FromContext(r.Context()).Error("write template", "error", err)
	}
}

// handleHealth reports liveness and read limiter usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"reads":  s.reads.Status(),
	})
}
