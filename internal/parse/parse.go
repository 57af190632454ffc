// Package parse converts tool output text into typed values, with
// errors that always name the input text and the target type.
package parse

import (
	"fmt"
	"strconv"
)

// Error reports a typed-field conversion failure.
type Error struct {
	Text string
	Type string
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to parse %q as %s", e.Text, e.Type)
}

// Int parses a base-10 integer.
func Int(text string) (int, error) {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, &Error{Text: text, Type: "int"}
	}
	return v, nil
}

// Int64 parses a base-10 64-bit integer.
func Int64(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &Error{Text: text, Type: "int64"}
	}
	return v, nil
}

// Float parses a 64-bit float.
func Float(text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &Error{Text: text, Type: "float64"}
	}
	return v, nil
}
