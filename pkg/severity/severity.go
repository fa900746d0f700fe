// Package severity classifies raw host records into canonical severities.
package severity

import (
	"fmt"
	"strings"
)

// Severity is the canonical classification of a record.
type Severity string

const (
	Error     Severity = "Error"
	Warning   Severity = "Warning"
	Info      Severity = "Info"
	Assert    Severity = "Assert"
	Exception Severity = "Exception"
)

// All lists every severity.
var All = []Severity{Error, Warning, Info, Assert, Exception}

// Parse returns the severity with the given name, ignoring case.
func Parse(name string) (Severity, error) {
	for _, s := range All {
		if strings.EqualFold(strings.TrimSpace(name), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q (must be error, warning, info, assert, or exception)", name)
}

// String returns the severity name.
func (s Severity) String() string {
	return string(s)
}

// UnmarshalText parses a severity name case-insensitively.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
