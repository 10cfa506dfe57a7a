package exposure

import "regexp"

// shutterRegex matches a fraction of a second ("1/250") or whole seconds ("2\"").
// It is intentionally unanchored: any string containing a match is accepted.
var shutterRegex = regexp.MustCompile(`1/\d+|\d+"`)

// ValidShutterSpeed reports whether s contains a shutter speed notation.
//
// Because the match is a substring test, values such as "x1/250y" or
// "1/250 (approx)" are accepted as well.
func ValidShutterSpeed(s string) bool {
	return shutterRegex.MatchString(s)
}
