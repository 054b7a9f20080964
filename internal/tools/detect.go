package tools

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ResolveSystemPath searches PATH for tool's primary binary. A binary that is
// simply not installed yields found == false and a nil error.
func ResolveSystemPath(table Table, tool ToolID) (string, bool, error) {
	binaries, err := table.Lookup(tool)
	if err != nil {
		return "", false, err
	}

	path, err := lookPath(binaries[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("look up %s: %w", binaries[0], err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, true, nil
	}
	return abs, true, nil
}
