package exposure

// Column names expected in the CSV header, in canonical order.
const (
	ColLensName             = "lens_name"
	ColFocalLength          = "focal_length"
	ColDate                 = "date"
	ColISO                  = "iso"
	ColAperture             = "aperture"
	ColShutterSpeed         = "shutter_speed"
	ColExposureCompensation = "exposure_compensation"
)

// Columns is the canonical header row.
var Columns = []string{
	ColLensName,
	ColFocalLength,
	ColDate,
	ColISO,
	ColAperture,
	ColShutterSpeed,
	ColExposureCompensation,
}

// FieldSpec defines decoding rules for a single CSV column.
type FieldSpec struct {
	Name     string // Column header name (matched case-insensitively)
	Optional bool   // Column and cell may be absent or empty
}

// FieldSpecs describes every column a RawRow is decoded from.
var FieldSpecs = []FieldSpec{
	{Name: ColLensName},
	{Name: ColFocalLength},
	{Name: ColDate},
	{Name: ColISO},
	{Name: ColAperture},
	{Name: ColShutterSpeed},
	{Name: ColExposureCompensation, Optional: true},
}

// HeaderIndex maps column names (lowercase) to their position in the CSV row.
type HeaderIndex map[string]int

// RawRow is one decoded but not yet validated CSV row.
type RawRow struct {
	Line                 int // 1-indexed source line, 0 if unknown
	LensName             string
	FocalLength          float64
	Date                 string
	ISO                  int
	Aperture             float64
	ShutterSpeed         string
	ExposureCompensation *string // nil when the cell is empty or absent
}

// Record is a validated exposure entry.
//
// ShutterSpeed always contains a valid shutter notation and
// ExposureCompensation, when set, is already resolved to stops.
type Record struct {
	LensName             string   `json:"lens_name"`
	FocalLength          float64  `json:"focal_length"`
	Date                 string   `json:"date"`
	ISO                  int      `json:"iso"`
	Aperture             float64  `json:"aperture"`
	ShutterSpeed         string   `json:"shutter_speed"`
	ExposureCompensation *float64 `json:"exposure_compensation"`
}
