package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/logscope/pkg/config"
)

func TestCheckConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "logscope.yaml")
	if err := os.WriteFile(file, []byte("search:\n  default_limit: 10\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		wantStatus string
	}{
		{"missing", filepath.Join(tmpDir, "nope.yaml"), "error"},
		{"directory", tmpDir, "error"},
		{"file", file, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkConfigExists(tt.path)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (%s)", result.Status, tt.wantStatus, result.Message)
			}
		})
	}
}

func TestCheckSourceFile(t *testing.T) {
	tmpDir := t.TempDir()
	empty := filepath.Join(tmpDir, "empty.jsonl")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		wantStatus string
	}{
		{"unset", "", "error"},
		{"missing", filepath.Join(tmpDir, "nope.jsonl"), "error"},
		{"directory", tmpDir, "error"},
		{"empty", empty, "warning"},
		{"dump", writeDump(t), "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Source.Path = tt.path
			result := checkSourceFile(cfg)
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (%s)", result.Status, tt.wantStatus, result.Message)
			}
		})
	}
}

func TestCheckHostLayout_Mismatch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Path = writeDump(t)
	cfg.Source.HostVersion = "legacy"

	result := checkHostLayout(context.Background(), cfg, &DiagnoseOptions{})
	if result.Status != "warning" {
		t.Fatalf("Status = %q, want warning (%s)", result.Status, result.Message)
	}
	if len(result.Suggests) == 0 || !strings.Contains(result.Suggests[0], "--host-version modern") {
		t.Errorf("Suggests = %v", result.Suggests)
	}
}

func TestCheckEnumeration(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Path = writeDump(t)

	result := checkEnumeration(context.Background(), cfg)
	if result.Status != "warning" {
		t.Errorf("Status = %q, want warning for the undecodable line", result.Status)
	}
	if result.Message != "1 of 5 records could not be decoded" {
		t.Errorf("Message = %q", result.Message)
	}
	want := []string{"Errors: 2", "Warnings: 1"}
	for i, d := range want {
		if result.Details[i] != d {
			t.Errorf("Details[%d] = %q, want %q", i, result.Details[i], d)
		}
	}
}

func TestCheckWebhooks(t *testing.T) {
	cfg := &config.Config{
		Webhooks: []config.WebhookConfig{
			{Name: "ok", URL: "https://hooks.example.com", Token: "t", Trigger: config.WebhookTriggerAlways},
			{Name: "ftp", URL: "ftp://hooks.example.com", Token: "t"},
			{Name: "open", URL: "https://hooks.example.com"},
			{Name: "typo", URL: "https://hooks.example.com", Token: "t", Trigger: "sometimes"},
		},
	}

	results := checkWebhooks(cfg, &DiagnoseOptions{})
	want := []string{"ok", "error", "warning", "error"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, status := range want {
		if results[i].Status != status {
			t.Errorf("%s: Status = %q, want %q", results[i].Check, results[i].Status, status)
		}
	}

	if got := checkWebhooks(&config.Config{}, &DiagnoseOptions{}); len(got) != 0 {
		t.Errorf("expected no results without webhooks, got %d", len(got))
	}
	if got := checkWebhooks(&config.Config{}, &DiagnoseOptions{Verbose: true}); len(got) != 1 {
		t.Errorf("expected one note in verbose mode, got %d", len(got))
	}
}

func TestRunDiagnose(t *testing.T) {
	var out bytes.Buffer
	g := &GlobalOptions{Source: writeDump(t)}

	if err := runDiagnose(context.Background(), &out, g, &DiagnoseOptions{}); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"[PASS] Config",
		"Using built-in defaults",
		"[PASS] Source",
		"[PASS] Host Layout",
		"[WARN] Enumeration",
		"Summary: 3 passed, 1 warnings, 0 errors",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunDiagnose_MissingConfig(t *testing.T) {
	var out bytes.Buffer
	g := &GlobalOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}

	if err := runDiagnose(context.Background(), &out, g, &DiagnoseOptions{}); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}
	if !strings.Contains(out.String(), "[FAIL] Config File") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
