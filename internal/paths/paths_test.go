package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveOverride(t *testing.T) {
	root := t.TempDir()
	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pp.Root != root {
		t.Fatalf("expected root %s, got %s", root, pp.Root)
	}
	if pp.BinDir != filepath.Join(root, "bin") {
		t.Fatalf("unexpected bin dir %s", pp.BinDir)
	}
	if pp.ReleaseCache != filepath.Join(root, "cache", "release_cache.json") {
		t.Fatalf("unexpected release cache %s", pp.ReleaseCache)
	}
	if pp.ConfigFile != filepath.Join(root, "halaldl.yaml") {
		t.Fatalf("unexpected config file %s", pp.ConfigFile)
	}
}

func TestResolveHomeEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	pp, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if pp.Root != root {
		t.Fatalf("expected root from %s, got %s", HomeEnv, pp.Root)
	}
}

func TestDefaultRoot(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }
	home := filepath.FromSlash("/home/u")

	cases := []struct {
		goos string
		env  map[string]string
		want string
	}{
		{"linux", nil, filepath.Join(home, ".local", "share", "halaldl")},
		{"linux", map[string]string{"XDG_DATA_HOME": "/xdg"}, filepath.Join("/xdg", "halaldl")},
		{"darwin", nil, filepath.Join(home, "Library", "Application Support", "HalalDL")},
		{"windows", map[string]string{"APPDATA": "C:/AppData"}, filepath.Join("C:/AppData", "HalalDL")},
		{"windows", nil, filepath.Join(home, "AppData", "Roaming", "HalalDL")},
	}
	for _, tc := range cases {
		env = tc.env
		if got := defaultRoot(tc.goos, home, getenv); got != tc.want {
			t.Errorf("%s %v: got %s, want %s", tc.goos, tc.env, got, tc.want)
		}
	}
}

func TestWithBinDir(t *testing.T) {
	root := t.TempDir()
	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := pp.WithBinDir("").BinDir; got != pp.BinDir {
		t.Fatalf("empty override changed bin dir to %s", got)
	}
	if got := pp.WithBinDir("tools").BinDir; got != filepath.Join(root, "tools") {
		t.Fatalf("relative override: got %s", got)
	}
	abs := filepath.Join(t.TempDir(), "bin")
	if got := pp.WithBinDir(abs).BinDir; got != abs {
		t.Fatalf("absolute override: got %s", got)
	}
}

func TestEnsureDirs(t *testing.T) {
	pp, err := Resolve(filepath.Join(t.TempDir(), "app"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := pp.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, dir := range []string{pp.LogsDir, pp.CacheDir} {
		if ok, err := DirExists(dir); err != nil || !ok {
			t.Fatalf("expected %s to exist (err=%v)", dir, err)
		}
	}
	if ok, _ := DirExists(pp.BinDir); ok {
		t.Fatalf("bin dir should not be created eagerly")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := FileExists(file); err != nil || !ok {
		t.Fatalf("FileExists(file) = %v, %v", ok, err)
	}
	if ok, err := FileExists(dir); err != nil || ok {
		t.Fatalf("FileExists(dir) = %v, %v", ok, err)
	}
	if ok, err := FileExists(filepath.Join(dir, "missing")); err != nil || ok {
		t.Fatalf("FileExists(missing) = %v, %v", ok, err)
	}
}
