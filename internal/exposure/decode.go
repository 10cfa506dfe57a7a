package exposure

// decode.go turns raw CSV records into RawRow values.
//
// Columns are located by header name rather than position, so exports with
// reordered or extra columns still decode. Decoding only checks shape (numbers
// parse, required cells exist); domain validation happens in BuildRecord.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RowDecoder produces raw rows one at a time.
type RowDecoder interface {
	// Next returns the next row, or io.EOF once the source is exhausted.
	Next() (RawRow, error)
}

// CSVDecoder decodes rows from a CSV stream with a header line.
type CSVDecoder struct {
	reader *csv.Reader
	idx    HeaderIndex
	done   bool
}

// NewCSVDecoder reads the header from r and prepares to decode data rows.
// An empty stream is not an error; the decoder simply yields no rows.
func NewCSVDecoder(r io.Reader) (*CSVDecoder, error) {
	cr := csv.NewReader(r)
	// Trailing optional cells may be omitted, so rows can be shorter than the header.
	cr.FieldsPerRecord = -1
	// Shutter speeds such as 2" are written unquoted.
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &CSVDecoder{reader: cr, done: true}, nil
	}
	if err != nil {
		return nil, &Error{Kind: InvalidCSV, Err: err}
	}

	idx, err := ValidateHeaders(header, FieldSpecs)
	if err != nil {
		return nil, &Error{Kind: InvalidCSV, Err: err}
	}

	return &CSVDecoder{reader: cr, idx: idx}, nil
}

// Next implements RowDecoder.
func (d *CSVDecoder) Next() (RawRow, error) {
	if d.done {
		return RawRow{}, io.EOF
	}

	record, err := d.reader.Read()
	if errors.Is(err, io.EOF) {
		d.done = true
		return RawRow{}, io.EOF
	}
	if err != nil {
		d.done = true
		line := 0
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		return RawRow{}, &Error{Kind: FailedToParse, Line: line, Err: err}
	}

	line, _ := d.reader.FieldPos(0)
	return DecodeRow(record, d.idx, line)
}

// DecodeRow converts a CSV record into a RawRow using the header index.
// Any failure is returned as a FailedToParse error for the given line.
func DecodeRow(record []string, idx HeaderIndex, line int) (RawRow, error) {
	row := RawRow{Line: line}
	fail := func(err error) (RawRow, error) {
		return RawRow{}, &Error{Kind: FailedToParse, Line: line, Err: err}
	}

	var err error
	if row.LensName, err = textCell(record, idx, ColLensName); err != nil {
		return fail(err)
	}
	if row.FocalLength, err = decimalCell(record, idx, ColFocalLength); err != nil {
		return fail(err)
	}
	if row.Date, err = textCell(record, idx, ColDate); err != nil {
		return fail(err)
	}
	if row.ISO, err = integerCell(record, idx, ColISO); err != nil {
		return fail(err)
	}
	if row.Aperture, err = decimalCell(record, idx, ColAperture); err != nil {
		return fail(err)
	}
	if row.ShutterSpeed, err = textCell(record, idx, ColShutterSpeed); err != nil {
		return fail(err)
	}

	if raw, ok := cell(record, idx, ColExposureCompensation); ok && raw != "" {
		row.ExposureCompensation = &raw
	}

	return row, nil
}

// cell returns the raw value of the named column, and whether the row has it.
func cell(record []string, idx HeaderIndex, name string) (string, bool) {
	pos, ok := idx[name]
	if !ok || pos >= len(record) {
		return "", false
	}
	return record[pos], true
}

// textCell returns a text cell verbatim. Empty text is allowed.
func textCell(record []string, idx HeaderIndex, name string) (string, error) {
	raw, ok := cell(record, idx, name)
	if !ok {
		return "", DecodeError{Field: name, Message: "missing required column"}
	}
	return raw, nil
}

func decimalCell(record []string, idx HeaderIndex, name string) (float64, error) {
	raw, err := numericCell(record, idx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, DecodeError{Field: name, Value: raw, Message: "invalid number format"}
	}
	return v, nil
}

func integerCell(record []string, idx HeaderIndex, name string) (int, error) {
	raw, err := numericCell(record, idx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, DecodeError{Field: name, Value: raw, Message: "invalid integer format"}
	}
	return v, nil
}

// numericCell returns a trimmed, non-empty cell for numeric parsing.
func numericCell(record []string, idx HeaderIndex, name string) (string, error) {
	raw, ok := cell(record, idx, name)
	if !ok {
		return "", DecodeError{Field: name, Message: "missing required column"}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", DecodeError{Field: name, Message: "required field is empty"}
	}
	return raw, nil
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are cleaned and lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[CleanHeader(h)] = i
	}
	return idx
}

// ValidateHeaders checks that every required column exists in the header.
// Returns the header index, or an error listing the missing columns.
func ValidateHeaders(header []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, spec := range specs {
		if spec.Optional {
			continue
		}
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}

// CleanHeader removes common spreadsheet artifacts from a header cell:
//   - a UTF-8 byte order mark left in the first cell
//   - surrounding whitespace
//   - Excel formula prefix (="...")
//   - surrounding quotes
func CleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.ToLower(strings.TrimSpace(s))
}
