package exposure

// compensation.go resolves exposure compensation notations to stops.
//
// Camera logs write compensation as one or two space-separated terms:
//   - a whole or decimal number: "0", "-1", "0.7"
//   - a fraction: "1/3", "-2/3"
//   - a whole number followed by a fraction: "1 1/3", "-1 2/3"
//
// Terms are folded left to right into an accumulator that starts at zero. While
// the accumulator is non-negative the next term is added; once it is negative
// the next term is subtracted, so the sign of "-1" carries over to "1/3".
// A leading term of exactly zero (including "-0") therefore always adds.

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// maxCompensationTerms is the largest number of space-separated terms accepted.
const maxCompensationTerms = 2

var (
	// decimalTermRegex matches integers and decimals with an optional sign.
	decimalTermRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

	// fractionTermRegex matches a/b with an optional sign on the numerator.
	fractionTermRegex = regexp.MustCompile(`^[+-]?\d+/\d+$`)
)

// Term parse failures, wrapped in an ExposureCompensationParse error.
var (
	ErrEmptyTerm       = errors.New("empty term")
	ErrTermSyntax      = errors.New("not an integer, decimal or fraction")
	ErrZeroDenominator = errors.New("zero denominator")
)

// ParseCompensation resolves an optional compensation text to stops.
//
// A nil text yields a nil value. More than two terms fail with
// InvalidExposureCompensation; a term that is not a number or fraction fails
// with ExposureCompensationParse.
func ParseCompensation(text *string) (*float64, error) {
	if text == nil {
		return nil, nil
	}
	raw := *text

	terms := strings.Split(raw, " ")
	if len(terms) > maxCompensationTerms {
		return nil, &Error{Kind: InvalidExposureCompensation, Value: raw}
	}

	acc := 0.0
	for _, term := range terms {
		v, err := parseFractionTerm(term)
		if err != nil {
			return nil, &Error{Kind: ExposureCompensationParse, Value: raw, Err: err}
		}

		if acc >= 0 {
			acc += v
		} else {
			acc -= v
		}
	}

	return &acc, nil
}

// parseFractionTerm converts a single integer, decimal or a/b token to a float.
func parseFractionTerm(term string) (float64, error) {
	if term == "" {
		return 0, ErrEmptyTerm
	}

	if decimalTermRegex.MatchString(term) {
		return strconv.ParseFloat(term, 64)
	}

	if !fractionTermRegex.MatchString(term) {
		return 0, ErrTermSyntax
	}

	num, den, _ := strings.Cut(term, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, ErrZeroDenominator
	}

	return n / d, nil
}
