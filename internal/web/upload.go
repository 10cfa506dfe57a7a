package web

// upload.go resolves the CSV stream of a request and reads it.
//
// Two request shapes are accepted:
//   - multipart/form-data with the file in the "file" field
//   - a raw body with Content-Type text/csv (or none / octet-stream)
//
// Both are bounded by http.MaxBytesReader and observed through a
// context-aware reader, so a client disconnect or the request timeout stops
// the decode at the next read.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/exposures/internal/exposure"
	"github.com/JonMunkholm/exposures/internal/logging"
)

// Transport errors. Their texts are matched by exposure.MapError.
var (
	errNoFile          = errors.New("no file provided")
	errEmptyFile       = errors.New("empty file")
	errFileTooLarge    = errors.New("file too large")
	errInvalidForm     = errors.New("invalid upload form")
	errUnsupportedType = errors.New("unsupported content type")
)

// upload is a resolved request body.
type upload struct {
	body     io.ReadCloser
	filename string
	size     int64 // -1 when unknown
}

// readResult is the outcome of a successful read.
type readResult struct {
	ReadID  string
	Records []exposure.Record
}

// openUpload locates the CSV stream in r.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnsupportedType, err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, fmt.Errorf("%w: %w", errFileTooLarge, err)
			}
			return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, errNoFile
		}
		if header.Size == 0 {
			file.Close()
			return nil, errEmptyFile
		}
		return &upload{body: file, filename: header.Filename, size: header.Size}, nil

	case "", "text/csv", "text/plain", "application/csv", "application/octet-stream":
		if r.ContentLength == 0 {
			return nil, errEmptyFile
		}
		return &upload{body: r.Body, filename: "body.csv", size: r.ContentLength}, nil

	default:
		return nil, fmt.Errorf("%w %s", errUnsupportedType, mediaType)
	}
}

// readUpload reads every record of the request's CSV.
// A read id is assigned up front so failures can be correlated in logs too.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (readResult, error) {
	ctx := r.Context()
	readID := uuid.NewString()
	logger := logging.WithFields(ctx, "read_id", readID)

	up, err := s.openUpload(w, r)
	if err != nil {
		return readResult{ReadID: readID}, err
	}
	defer up.body.Close()

	if err := s.reads.Acquire(ctx); err != nil {
		return readResult{ReadID: readID}, err
	}
	defer s.reads.Release()

	start := time.Now()
	counter := exposure.WrapForStreaming(&ctxReader{ctx: ctx, r: up.body}, up.size, s.cfg.Reader.Options())
	records, err := exposure.ReadFrom(counter, exposure.Options{})

	logger = logger.With(
		"filename", up.filename,
		"bytes", counter.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		logger.Warn("read failed",
			"kind", exposure.KindOf(err).String(),
			"line", exposure.Line(err),
			"progress_pct", counter.Progress(),
			"error", err,
		)
		return readResult{ReadID: readID}, err
	}

	logger.Info("read completed", "rows", len(records))
	return readResult{ReadID: readID, Records: records}, nil
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
