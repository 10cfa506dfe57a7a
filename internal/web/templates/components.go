// Package templates holds the templ components rendered by the web UI.
//
// Components live in components.templ; run `templ generate` after editing it.
package templates

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/exposures/internal/exposure"
)

// UploadPageParams configures the upload form page.
type UploadPageParams struct {
	Columns     []string // Expected CSV header, shown as a hint
	MaxFileSize int64    // Upload limit in bytes
}

// ResultsParams describes a successful read.
type ResultsParams struct {
	ReadID  string
	Records []exposure.Record
}

// recordCells formats a record in column order.
func recordCells(rec exposure.Record) []string {
	comp := ""
	if rec.ExposureCompensation != nil {
		comp = strconv.FormatFloat(*rec.ExposureCompensation, 'f', 2, 64)
	}
	return []string{
		rec.LensName,
		strconv.FormatFloat(rec.FocalLength, 'f', -1, 64),
		rec.Date,
		strconv.Itoa(rec.ISO),
		strconv.FormatFloat(rec.Aperture, 'f', -1, 64),
		rec.ShutterSpeed,
		comp,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatBytes renders a size as B, KB or MB.
func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n >= unit*unit:
		return fmt.Sprintf("%.0f MB", float64(n)/(unit*unit))
	case n >= unit:
		return fmt.Sprintf("%.0f KB", float64(n)/unit)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
