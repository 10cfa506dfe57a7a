package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is:
//   - logged with the technical error and request id (server-side)
//   - mapped through exposure.MapError to a message, action and support code
//   - rendered as JSON for API clients or as an HTML alert for the page
//
// Read errors also carry the failing CSV line and the error kind.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/exposures/internal/exposure"
	"github.com/JonMunkholm/exposures/internal/logging"
	"github.com/JonMunkholm/exposures/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code, Kind) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	ReadID  string `json:"read_id,omitempty"`
	Line    int    `json:"line,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// statusFor picks the HTTP status for a read or transport error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooManyReads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case exposure.KindOf(err) != 0:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// userError maps err for display. Transport failures that surface inside a
// read error (an oversized body or a cancelled request) are reported as
// themselves rather than as a malformed row, so the result carries no kind or
// line in that case.
func userError(err error) *exposure.UserError {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return exposure.NewUserError(errFileTooLarge)
	case errors.Is(err, context.DeadlineExceeded):
		return exposure.NewUserError(context.DeadlineExceeded)
	case errors.Is(err, context.Canceled):
		return exposure.NewUserError(context.Canceled)
	}
	return exposure.NewUserError(err)
}

// respondError logs err and writes a user-friendly response.
// HTMX and page requests get an HTML alert; everything else gets JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, readID string) {
	status := statusFor(err)
	ue := userError(err)
	msg := ue.User
	line := exposure.Line(ue)

	// Known failures are the client's input; anything unmapped is ours.
	level := slog.LevelWarn
	if !exposure.IsUserFacing(ue.Technical) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"user_error", exposure.FormatUserError(ue.Technical),
		"code", msg.Code,
		"read_id", readID,
	)

	if isHTMX(r) || !wantsJSON(r) {
		renderErrorPartial(w, r, msg, line, status)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		ReadID:  readID,
		Line:    line,
	}
	if kind := exposure.KindOf(ue); kind != 0 {
		resp.Kind = kind.String()
	}
	writeJSONStatus(w, status, resp)
}

// renderErrorPartial renders the error alert fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg exposure.UserMessage, line, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// The alert is often the answer to a timed-out request; render it anyway.
	ctx := context.WithoutCancel(r.Context())
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code, line).Render(ctx, w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request was sent by the upload page script.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeError writes a JSON error response mapped through exposure.MapError.
// Used by middleware that has no read context.
func writeError(w http.ResponseWriter, status int, message string) {
	msg := exposure.MapError(errors.New(message))
	writeJSONStatus(w, status, ErrorResponse{
		Error:   message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
