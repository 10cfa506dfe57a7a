package exposure

import (
	"errors"
	"io"
	"os"
)

// ReadFile reads every record from the CSV file at path.
//
// Opening failures are reported as InvalidCSV. The file is closed on every
// return path.
func ReadFile(path string, opts Options) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: InvalidCSV, Err: err}
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return ReadFrom(WrapForStreaming(f, size, opts), Options{})
}

// ReadFrom reads every record from a CSV stream with a header line.
func ReadFrom(r io.Reader, opts Options) ([]Record, error) {
	if opts.SkipBOM || opts.SanitizeUTF8 {
		r = WrapForStreaming(r, 0, opts)
	}

	dec, err := NewCSVDecoder(r)
	if err != nil {
		return nil, err
	}
	return Collect(dec)
}

// Collect drains dec, building a Record from each row in order.
//
// It stops at the first row that fails to decode or validate and returns only
// that error; records built before it are discarded. An exhausted decoder
// yields an empty, non-nil slice.
func Collect(dec RowDecoder) ([]Record, error) {
	records := make([]Record, 0)

	for {
		row, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			if KindOf(err) == 0 {
				err = &Error{Kind: FailedToParse, Err: err}
			}
			return nil, err
		}

		rec, err := BuildRecord(row)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}
}
