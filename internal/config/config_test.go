package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Asdmir786/HalalDL/internal/tools"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "halaldl.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1, got %d", cfg.Version)
	}
	if cfg.UserAgent != tools.DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", cfg.UserAgent)
	}
	if cfg.Variants["ffmpeg"] != "full" {
		t.Fatalf("expected ffmpeg variant full, got %q", cfg.Variants["ffmpeg"])
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "halaldl.yaml")
	data := []byte(`
bin_dir: /opt/halaldl/bin
channels:
  yt-dlp: nightly
variants:
  ffmpeg: essentials
extra_paths:
  - /usr/local/bin/yt-dlp
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BinDir != "/opt/halaldl/bin" {
		t.Fatalf("unexpected bin dir %q", cfg.BinDir)
	}
	if cfg.UserAgent != tools.DefaultUserAgent {
		t.Fatalf("user agent default not applied: %q", cfg.UserAgent)
	}
	ch, err := cfg.ChannelFor(tools.ToolYtDlp)
	if err != nil || ch != tools.ChannelNightly {
		t.Fatalf("ChannelFor(yt-dlp) = %q, %v", ch, err)
	}
	ch, err = cfg.ChannelFor(tools.ToolDeno)
	if err != nil || ch != tools.ChannelStable {
		t.Fatalf("ChannelFor(deno) = %q, %v", ch, err)
	}
	if got := cfg.VariantMap()[tools.ToolFFmpeg]; got != "essentials" {
		t.Fatalf("expected essentials variant, got %q", got)
	}
	if len(cfg.ExtraPaths) != 1 {
		t.Fatalf("expected one extra path, got %v", cfg.ExtraPaths)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "halaldl.yaml")
	if err := os.WriteFile(path, []byte("channels: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestTableOverride(t *testing.T) {
	cfg := Default()
	cfg.Tools = []tools.ToolSpec{
		{ID: "yt-dlp", Binaries: []string{"yt-dlp"}},
		{ID: "ffmpeg", Binaries: []string{"ffmpeg", "ffprobe", "ffplay"}},
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	bins, ok := table.Binaries(tools.ToolFFmpeg)
	if !ok || len(bins) != 3 {
		t.Fatalf("expected 3 ffmpeg binaries, got %v", bins)
	}
	if _, ok := table.Binaries(tools.ToolDeno); ok {
		t.Fatal("deno should not be in overridden table")
	}
}

func TestChannelMapRejectsUnknownChannel(t *testing.T) {
	cfg := Default()
	cfg.Channels["yt-dlp"] = "beta"
	if _, err := cfg.ChannelMap(tools.HostTable()); err == nil {
		t.Fatal("expected error for unknown channel")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.BinDir = "bin"
	buf, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "halaldl.yaml")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.BinDir != "bin" {
		t.Fatalf("expected bin dir to survive, got %q", loaded.BinDir)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HALALDL_BIN_DIR", "/env/bin")
	t.Setenv("HALALDL_LOG_LEVEL", "debug")
	t.Setenv("HALALDL_USER_AGENT", "custom/2.0")
	t.Setenv("HALALDL_CONFIG", "/env/halaldl.yaml")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.Config != "/env/halaldl.yaml" {
		t.Fatalf("unexpected config override %q", env.Config)
	}

	cfg := Default()
	env.Apply(&cfg)
	if cfg.BinDir != "/env/bin" || cfg.LogLevel != "debug" || cfg.UserAgent != "custom/2.0" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestEnvApplyKeepsUnset(t *testing.T) {
	cfg := Default()
	cfg.BinDir = "/from/file"
	Env{}.Apply(&cfg)
	if cfg.BinDir != "/from/file" {
		t.Fatalf("empty env should not override, got %q", cfg.BinDir)
	}
}
