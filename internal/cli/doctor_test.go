package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Asdmir786/HalalDL/internal/config"
	"github.com/Asdmir786/HalalDL/internal/tools"
)

func TestJoinComma(t *testing.T) {
	tests := []struct {
		input []string
		want  string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a, b"},
		{[]string{"a", "b", "c"}, "a, b, c"},
	}

	for _, tt := range tests {
		got := joinComma(tt.input)
		if got != tt.want {
			t.Errorf("joinComma(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCheckConfigWithError(t *testing.T) {
	var emptyCfg config.Config
	result := checkConfig(emptyCfg, fmt.Errorf("config file not readable"))

	if result.Status != "error" {
		t.Errorf("got status=%q, want error", result.Status)
	}
	if result.Name != "Config" {
		t.Errorf("got name=%q, want Config", result.Name)
	}
}

func TestCheckConfigValid(t *testing.T) {
	result := checkConfig(config.Default(), nil)

	if result.Status != "ok" {
		t.Errorf("got status=%q, want ok (%s)", result.Status, result.Summary)
	}
}

func TestCheckConfigWarning(t *testing.T) {
	cfg := config.Default()
	cfg.Variants["deno"] = "full"
	result := checkConfig(cfg, nil)

	if result.Status != "warning" {
		t.Errorf("got status=%q, want warning", result.Status)
	}
}

func TestCheckBinDir(t *testing.T) {
	dir := t.TempDir()
	if got := checkBinDir(dir).Status; got != "ok" {
		t.Errorf("existing dir: got %q", got)
	}
	if got := checkBinDir(filepath.Join(dir, "missing")).Status; got != "warning" {
		t.Errorf("missing dir: got %q", got)
	}
}

func TestCheckBackupsFlagsLeftovers(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg.new"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := checkBackups([]tools.ToolID{tools.ToolFFmpeg}, []string{dir})
	if result.Status != "warning" {
		t.Fatalf("got status=%q, want warning", result.Status)
	}
	if !strings.Contains(result.Summary, "backups for ffmpeg") || !strings.Contains(result.Summary, "ffmpeg.new") {
		t.Fatalf("unexpected summary %q", result.Summary)
	}

	clean := checkBackups(nil, []string{t.TempDir()})
	if clean.Status != "ok" || clean.Summary != "no backups" {
		t.Fatalf("unexpected clean result %+v", clean)
	}
}

func TestDoctorReportsInvalidToolTable(t *testing.T) {
	home := t.TempDir()
	cfg := []byte("tools:\n  - id: a\n    binaries: [x]\n  - id: b\n    binaries: [X]\n")
	if err := os.WriteFile(filepath.Join(home, "halaldl.yaml"), cfg, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, home, "--json", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []healthCheck
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}

	var tools *healthCheck
	for i := range checks {
		if checks[i].Name == "Tools" {
			tools = &checks[i]
		}
	}
	if tools == nil {
		t.Fatalf("expected a Tools check, got %+v", checks)
	}
	if tools.Status != "error" || !strings.Contains(tools.Summary, "already owned by a") {
		t.Fatalf("unexpected Tools check %+v", *tools)
	}
}

func TestDoctorHealthyHome(t *testing.T) {
	home := t.TempDir()
	out, err := runCLI(t, home, "--json", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []healthCheck
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name
	}
	if got := joinComma(names); got != "Config, Bin dir, Tools, Backups" {
		t.Fatalf("unexpected checks %s", got)
	}
}
