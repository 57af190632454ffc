package pipeline

import (
	"fmt"
	"strings"

	"github.com/SGullin/arpa/internal/parse"
)

// TOA is one parsed tempo2-format measurement line.
type TOA struct {
	File      string
	Frequency float64
	// MJDInt and MJDFrac are the split arrival time. Splitting the
	// textual field keeps the full fractional precision.
	MJDInt  int64
	MJDFrac float64
	// Error is the measurement error, in microseconds.
	Error float64
	Site  string
}

// ParseTempo2Line parses one line of tempo2-format measurement output:
// file, frequency, arrival time, error and site, whitespace separated.
// Trailing flag pairs are ignored.
func ParseTempo2Line(line string) (*TOA, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return nil, fmt.Errorf(
			"measurement line has %d fields, expected at least 5: %q",
			len(fields), line,
		)
	}

	frequency, err := parse.Float(fields[1])
	if err != nil {
		return nil, err
	}

	mjdInt, mjdFrac, err := splitMJD(fields[2])
	if err != nil {
		return nil, err
	}

	toaErr, err := parse.Float(fields[3])
	if err != nil {
		return nil, err
	}

	return &TOA{
		File:      fields[0],
		Frequency: frequency,
		MJDInt:    mjdInt,
		MJDFrac:   mjdFrac,
		Error:     toaErr,
		Site:      fields[4],
	}, nil
}

// splitMJD separates an arrival time into integer and fractional days
// at the decimal point, without ever forming a single float.
func splitMJD(text string) (int64, float64, error) {
	intPart, fracPart, found := strings.Cut(text, ".")

	day, err := parse.Int64(intPart)
	if err != nil {
		return 0, 0, err
	}
	if !found || fracPart == "" {
		return day, 0, nil
	}

	frac, err := parse.Float("0." + fracPart)
	if err != nil {
		return 0, 0, err
	}
	return day, frac, nil
}
