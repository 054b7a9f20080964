package tools

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var linuxTable = DefaultTable("linux")

type recordingReporter struct {
	mu     sync.Mutex
	events []Progress
}

func (r *recordingReporter) Report(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *recordingReporter) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Status
	}
	return out
}

func (r *recordingReporter) last() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Progress{}
	}
	return r.events[len(r.events)-1]
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func requireMissing(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.Truef(t, os.IsNotExist(err), "expected %s to be absent, stat err=%v", path, err)
}

// stubRename replaces renameFile for the test; fail decides per call whether
// to return an injected error instead of renaming.
func stubRename(t *testing.T, fail func(from, to string) error) {
	t.Helper()
	orig := renameFile
	renameFile = func(from, to string) error {
		if err := fail(from, to); err != nil {
			return err
		}
		return orig(from, to)
	}
	t.Cleanup(func() { renameFile = orig })
}

func stubRemove(t *testing.T, fail func(path string) error) {
	t.Helper()
	orig := removeFile
	removeFile = func(path string) error {
		if err := fail(path); err != nil {
			return err
		}
		return orig(path)
	}
	t.Cleanup(func() { removeFile = orig })
}
