package exposure

import (
	"errors"
	"fmt"
)

// ErrorKind identifies which step of a read failed.
// It implements error so kinds can be used as errors.Is targets.
type ErrorKind int

const (
	// InvalidCSV means the source could not be opened or its header read.
	InvalidCSV ErrorKind = iota + 1
	// FailedToParse means a row's cells could not be decoded into a RawRow.
	FailedToParse
	// InvalidShutterSpeed means the shutter speed did not match the notation.
	InvalidShutterSpeed
	// ExposureCompensationParse means a compensation term was not a number or fraction.
	ExposureCompensationParse
	// InvalidExposureCompensation means the compensation had more than two terms.
	InvalidExposureCompensation
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCSV:
		return "invalid_csv"
	case FailedToParse:
		return "failed_to_parse"
	case InvalidShutterSpeed:
		return "invalid_shutter_speed"
	case ExposureCompensationParse:
		return "exposure_compensation_parse"
	case InvalidExposureCompensation:
		return "invalid_exposure_compensation"
	default:
		return "unknown"
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is the only error type returned by this package.
type Error struct {
	Kind  ErrorKind
	Line  int    // Source line of the offending row, 0 if not row-specific
	Value string // Offending raw text, if any
	Err   error  // Underlying cause, if any
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	switch e.Kind {
	case InvalidCSV:
		msg = fmt.Sprintf("failed to read CSV: %v", e.Err)
	case FailedToParse:
		msg = fmt.Sprintf("failed to deserialize the row: %v", e.Err)
	case InvalidShutterSpeed:
		msg = fmt.Sprintf("the shutter speed is incorrect: %q does not follow the pattern", e.Value)
	case ExposureCompensationParse:
		msg = fmt.Sprintf("wrong format for exposure compensation %q: %v", e.Value, e.Err)
	case InvalidExposureCompensation:
		msg = fmt.Sprintf("the format of the exposure compensation %q is wrong", e.Value)
	default:
		msg = fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && e != nil && e.Kind == k
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Line returns the source line attached to err, or 0.
func Line(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Line
	}
	return 0
}

// withLine returns err with its line set, if err is an *Error without one.
func withLine(err error, line int) error {
	var e *Error
	if line > 0 && errors.As(err, &e) && e.Line == 0 {
		cp := *e
		cp.Line = line
		return &cp
	}
	return err
}

// DecodeError describes a single cell that could not be decoded.
type DecodeError struct {
	Field   string // Column name
	Value   string // The raw cell
	Message string // Human-readable reason
}

func (e DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}
