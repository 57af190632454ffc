package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedInputError reports user-supplied text that failed domain
// validation.
type MalformedInputError struct {
	Text string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Text
}

// ValidateRA checks a J2000 right ascension of the form "HH:MM:SS" with
// an optional fractional second part.
func ValidateRA(text string) error {
	h, m, s, err := splitSexagesimal(text)
	if err != nil {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q is not a valid right ascension: %v", text, err),
		}
	}
	if h < 0 || h > 23 {
		return &MalformedInputError{
			Text: fmt.Sprintf("right ascension hours out of range in %q", text),
		}
	}
	if m > 59 || s >= 60 {
		return &MalformedInputError{
			Text: fmt.Sprintf("right ascension minutes or seconds out of range in %q", text),
		}
	}
	return nil
}

// ValidateDec checks a J2000 declination of the form "±DD:MM:SS" with
// an optional fractional second part. The sign is optional.
func ValidateDec(text string) error {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(text, "+"), "-")
	d, m, s, err := splitSexagesimal(trimmed)
	if err != nil {
		return &MalformedInputError{
			Text: fmt.Sprintf("%q is not a valid declination: %v", text, err),
		}
	}
	if d > 90 {
		return &MalformedInputError{
			Text: fmt.Sprintf("declination degrees out of range in %q", text),
		}
	}
	if m > 59 || s >= 60 {
		return &MalformedInputError{
			Text: fmt.Sprintf("declination minutes or seconds out of range in %q", text),
		}
	}
	return nil
}

func splitSexagesimal(text string) (int, int, float64, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want three colon-separated parts, got %d", len(parts))
	}

	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad first part %q", parts[0])
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, 0, 0, fmt.Errorf("bad minutes %q", parts[1])
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 {
		return 0, 0, 0, fmt.Errorf("bad seconds %q", parts[2])
	}

	return first, minutes, seconds, nil
}
