package severity

import "testing"

func TestClassify_Modes(t *testing.T) {
	tests := []struct {
		name string
		mode int32
		want Severity
	}{
		{"compiler error composite", 272384, Error},
		{"compiler warning composite", 266240, Warning},
		{"shader error composite", 262212, Error},
		{"error bit", 1 << 0, Error},
		{"assert bit", 1 << 1, Assert},
		{"log bit", 1 << 2, Info},
		{"warning bit", 1 << 3, Warning},
		{"exception bit", 1 << 4, Exception},
		{"scripting error", 1 << 8, Error},
		{"scripting warning", 1 << 9, Warning},
		{"compile error", 1 << 11, Error},
		{"compile warning", 1 << 12, Warning},
		{"zero", 0, Info},
		{"unknown high bits", 1 << 30, Info},
		{"negative", -1, Error},
	}

	c := NewClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.mode, ""); got != tt.want {
				t.Errorf("Classify(%d) = %s, want %s", tt.mode, got, tt.want)
			}
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name string
		mode int32
		want Severity
		rule string
	}{
		{"compile error beats warning bit", 1<<11 | 1<<3, Error, "bit compile_error"},
		{"compile warning beats scripting error", 1<<12 | 1<<8, Warning, "bit compile_warning"},
		{"scripting warning beats error bit", 1<<9 | 1<<0, Warning, "bit scripting_warning"},
		{"error beats assert", 1<<0 | 1<<1, Error, "bit error"},
		{"assert beats exception", 1<<1 | 1<<4, Assert, "bit assert"},
		{"exception beats warning", 1<<4 | 1<<3, Exception, "bit exception"},
		{"warning beats log", 1<<3 | 1<<2, Warning, "bit warning"},
		{"observed beats bits", 262212, Error, "observed shader_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Explain(tt.mode, "")
			if got.Severity != tt.want {
				t.Errorf("Severity = %s, want %s", got.Severity, tt.want)
			}
			if got.Rule != tt.rule {
				t.Errorf("Rule = %q, want %q", got.Rule, tt.rule)
			}
		})
	}
}

func TestClassify_Markers(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		want  Severity
	}{
		{"error call", "UnityEngine.Debug:LogError (object)\nGame:Update ()", Error},
		{"error format call", "UnityEngine.Debug:LogErrorFormat (string,object[])", Error},
		{"warning call", "UnityEngine.Debug:LogWarning (object)", Warning},
		{"exception call", "UnityEngine.Debug:LogException (System.Exception)", Exception},
		{"assertion call", "UnityEngine.Debug:LogAssertion (object)", Assert},
		{"assert call", "UnityEngine.Debug:Assert (bool)", Assert},
		{"plain log call", "UnityEngine.Debug:Log (object)", Info},
	}

	c := NewClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The error bit is set so a marker must override it.
			if got := c.Classify(1, tt.stack); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify_CustomTable(t *testing.T) {
	table := DefaultTable()
	table.Observed = append(table.Observed, ObservedCode{Name: "graph_error", Mode: 1 << 20, Severity: Exception})

	c := NewClassifier(table)
	if got := c.Classify(1<<20, ""); got != Exception {
		t.Errorf("Classify() = %s, want Exception for added observed code", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", Error, false},
		{"WARNING", Warning, false},
		{" Info ", Info, false},
		{"assert", Assert, false},
		{"Exception", Exception, false},
		{"fatal", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
