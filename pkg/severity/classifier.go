package severity

import "strings"

// Classification is a severity together with the rule that produced it.
type Classification struct {
	Severity Severity
	Rule     string
}

// Classifier maps a mode bitmask and stack trace to a Severity.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	table *Table
}

// NewClassifier creates a classifier over t. A nil table uses DefaultTable.
func NewClassifier(t *Table) *Classifier {
	if t == nil {
		t = DefaultTable()
	}
	return &Classifier{table: t}
}

// Classify returns the severity of a record.
func (c *Classifier) Classify(mode int32, stackTrace string) Severity {
	return c.Explain(mode, stackTrace).Severity
}

// Explain classifies a record and reports which rule matched.
//
// Content markers win over the bitmask because compiler records carry
// composite modes that do not follow the flag layout.
func (c *Classifier) Explain(mode int32, stackTrace string) Classification {
	if stackTrace != "" {
		for _, m := range c.table.Markers {
			if m.Text != "" && strings.Contains(stackTrace, m.Text) {
				return Classification{Severity: m.Severity, Rule: "marker " + m.Text}
			}
		}
	}

	for _, code := range c.table.Observed {
		if mode == code.Mode {
			return Classification{Severity: code.Severity, Rule: "observed " + code.Name}
		}
	}

	b := c.table.Bits
	checks := []struct {
		bit  int32
		sev  Severity
		name string
	}{
		{b.CompileError, Error, "compile_error"},
		{b.CompileWarning, Warning, "compile_warning"},
		{b.ScriptingError, Error, "scripting_error"},
		{b.ScriptingWarning, Warning, "scripting_warning"},
		{b.Error, Error, "error"},
		{b.Assert, Assert, "assert"},
		{b.Exception, Exception, "exception"},
		{b.Warning, Warning, "warning"},
		{b.Log, Info, "log"},
	}
	for _, chk := range checks {
		if chk.bit != 0 && mode&chk.bit != 0 {
			return Classification{Severity: chk.sev, Rule: "bit " + chk.name}
		}
	}

	return Classification{Severity: Info, Rule: "default"}
}
