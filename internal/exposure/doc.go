// Package exposure turns CSV exports of camera exposure logs into validated records.
//
// The package contains the domain logic only. It has no UI or transport
// dependencies and never logs; callers decide what to do with errors.
//
// # Pipeline
//
// Each data row flows through the same steps:
//
//  1. A [RowDecoder] turns raw CSV cells into a [RawRow] (typed numbers, optional compensation)
//  2. [BuildRecord] validates the shutter speed with [ValidShutterSpeed]
//  3. [BuildRecord] resolves the exposure compensation with [ParseCompensation]
//  4. [Collect] appends the resulting [Record], stopping at the first failure
//
// [ReadFile] and [ReadFrom] wire the standard CSV decoder into this pipeline.
// A read is all-or-nothing: on error no records are returned.
//
// # Notation
//
// Shutter speeds are written as a fraction of a second ("1/250") or whole
// seconds followed by a double quote ("2\""). Exposure compensation is one or
// two space-separated fraction terms: "0", "-2/3", "1 1/3", "-1 1/3".
//
// # Errors
//
// Every failure is an [*Error] carrying one [ErrorKind]. Callers can branch with
// errors.Is:
//
//	records, err := exposure.ReadFile("shots.csv", exposure.DefaultOptions())
//	if errors.Is(err, exposure.InvalidShutterSpeed) {
//	    // ...
//	}
//
// [MapError] converts any error into a [UserMessage] with a support code.
package exposure
