package exposure

// BuildRecord validates a decoded row and converts it to a Record.
//
// The shutter speed is checked before the compensation is parsed, so a row with
// both problems reports InvalidShutterSpeed. Lens name, focal length, date, ISO
// and aperture are copied as-is.
func BuildRecord(row RawRow) (Record, error) {
	if !ValidShutterSpeed(row.ShutterSpeed) {
		return Record{}, &Error{Kind: InvalidShutterSpeed, Line: row.Line, Value: row.ShutterSpeed}
	}

	comp, err := ParseCompensation(row.ExposureCompensation)
	if err != nil {
		return Record{}, withLine(err, row.Line)
	}

	return Record{
		LensName:             row.LensName,
		FocalLength:          row.FocalLength,
		Date:                 row.Date,
		ISO:                  row.ISO,
		Aperture:             row.Aperture,
		ShutterSpeed:         row.ShutterSpeed,
		ExposureCompensation: comp,
	}, nil
}
