package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HomeEnv overrides the application data root.
const HomeEnv = "HALALDL_HOME"

const appName = "HalalDL"

// AppPaths captures canonical locations under the application data root.
type AppPaths struct {
	Root         string
	BinDir       string
	LogsDir      string
	CacheDir     string
	ReleaseCache string
	ConfigFile   string
}

// Resolve determines the application data root. An explicit override wins,
// then $HALALDL_HOME, then the per-OS default.
func Resolve(override string) (AppPaths, error) {
	root := override
	if root == "" {
		root = os.Getenv(HomeEnv)
	}
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return AppPaths{}, fmt.Errorf("resolve app data root: %w", err)
		}
		return newAppPaths(abs), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("detect user home: %w", err)
	}
	return newAppPaths(defaultRoot(runtime.GOOS, home, os.Getenv)), nil
}

func defaultRoot(goos, home string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
		return filepath.Join(home, "AppData", "Roaming", appName)
	default:
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "halaldl")
		}
		return filepath.Join(home, ".local", "share", "halaldl")
	}
}

func newAppPaths(root string) AppPaths {
	cacheDir := filepath.Join(root, "cache")
	return AppPaths{
		Root:         root,
		BinDir:       filepath.Join(root, "bin"),
		LogsDir:      filepath.Join(root, "logs"),
		CacheDir:     cacheDir,
		ReleaseCache: filepath.Join(cacheDir, "release_cache.json"),
		ConfigFile:   filepath.Join(root, "halaldl.yaml"),
	}
}

// WithBinDir returns a copy using dir as the install directory. Relative
// values are taken relative to the root.
func (p AppPaths) WithBinDir(dir string) AppPaths {
	if dir == "" {
		return p
	}
	if filepath.IsAbs(dir) {
		p.BinDir = filepath.Clean(dir)
	} else {
		p.BinDir = filepath.Join(p.Root, dir)
	}
	return p
}

// EnsureDirs creates the logs and cache directories. The bin directory is
// created lazily by the operations that write to it.
func (p AppPaths) EnsureDirs() error {
	for _, dir := range []string{p.LogsDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
