package severity

// Bits holds the single-bit flags of the host mode bitmask.
type Bits struct {
	Error            int32 `yaml:"error"`
	Assert           int32 `yaml:"assert"`
	Log              int32 `yaml:"log"`
	Warning          int32 `yaml:"warning"`
	Exception        int32 `yaml:"exception"`
	ScriptingError   int32 `yaml:"scripting_error"`
	ScriptingWarning int32 `yaml:"scripting_warning"`
	CompileError     int32 `yaml:"compile_error"`
	CompileWarning   int32 `yaml:"compile_warning"`
}

// ObservedCode is a composite mode value seen in the wild that does not
// follow the single-bit layout.
type ObservedCode struct {
	Name     string   `yaml:"name"`
	Mode     int32    `yaml:"mode"`
	Severity Severity `yaml:"severity"`
}

// Marker is a stack trace substring naming the originating log call.
type Marker struct {
	Text     string   `yaml:"text"`
	Severity Severity `yaml:"severity"`
}

// Table is the immutable lookup data used by a Classifier.
type Table struct {
	Bits     Bits           `yaml:"bits"`
	Observed []ObservedCode `yaml:"observed_codes"`
	// Markers are checked in order; more specific markers must come first.
	Markers []Marker `yaml:"markers"`
}

// DefaultBits returns the documented host flag layout.
func DefaultBits() Bits {
	return Bits{
		Error:            1 << 0,
		Assert:           1 << 1,
		Log:              1 << 2,
		Warning:          1 << 3,
		Exception:        1 << 4,
		ScriptingError:   1 << 8,
		ScriptingWarning: 1 << 9,
		CompileError:     1 << 11,
		CompileWarning:   1 << 12,
	}
}

// DefaultObserved returns the composite codes produced by the compiler and
// shader subsystems.
func DefaultObserved() []ObservedCode {
	return []ObservedCode{
		{Name: "compiler_error", Mode: 272384, Severity: Error},
		{Name: "compiler_warning", Mode: 266240, Severity: Warning},
		{Name: "shader_error", Mode: 262212, Severity: Error},
	}
}

// DefaultMarkers returns the log call markers, most specific first.
func DefaultMarkers() []Marker {
	return []Marker{
		{Text: "Debug:LogException", Severity: Exception},
		{Text: "Debug:LogAssertion", Severity: Assert},
		{Text: "Debug:Assert", Severity: Assert},
		{Text: "Debug:LogError", Severity: Error},
		{Text: "Debug:LogWarning", Severity: Warning},
		{Text: "Debug:Log", Severity: Info},
	}
}

// DefaultTable returns the built-in classification table.
func DefaultTable() *Table {
	return &Table{
		Bits:     DefaultBits(),
		Observed: DefaultObserved(),
		Markers:  DefaultMarkers(),
	}
}
