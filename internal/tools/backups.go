package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

// Registry finds, restores and purges backups across install directories.
type Registry struct {
	table Table
}

// NewRegistry returns a Registry over table.
func NewRegistry(table Table) *Registry {
	return &Registry{table: table}
}

// ListBackedUpTools returns the tools with at least one backup in dirs, in
// table order. Unreadable directories are skipped.
func (r *Registry) ListBackedUpTools(ctx context.Context, dirs []string) []ToolID {
	logger := logx.FromContext(ctx)
	found := map[ToolID]bool{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("scan for backups", "dir", dir, "err", err)
			continue
		}
		for _, entry := range entries {
			if id, ok := r.backupOwner(entry); ok {
				found[id] = true
			}
		}
	}

	var ids []ToolID
	for _, id := range r.table.Tools() {
		if found[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) backupOwner(entry os.DirEntry) (ToolID, bool) {
	if entry.IsDir() {
		return "", false
	}
	name := entry.Name()
	if !strings.HasSuffix(name, backupSuffix) {
		return "", false
	}
	return r.table.ToolForBinary(strings.TrimSuffix(name, backupSuffix))
}

// Rollback restores every backup of tool's binaries found in dirs. The live
// binary is parked at its rollback-tmp name while the backup moves into
// place, and put back if that move fails.
func (r *Registry) Rollback(ctx context.Context, tool ToolID, dirs []string) ([]Restored, error) {
	binaries, err := r.table.Lookup(tool)
	if err != nil {
		return nil, err
	}
	logger := logx.FromContext(ctx).With("tool", tool)

	var restored []Restored
	for _, dir := range dirs {
		for _, bin := range binaries {
			current := filepath.Join(dir, bin)
			backup := BackupPath(current)

			hasBackup, err := pathExists(backup)
			if err != nil {
				return restored, &RollbackError{Tool: tool, Binary: bin, Err: err}
			}
			if !hasBackup {
				continue
			}

			if err := restoreBackup(ctx, current, backup); err != nil {
				return restored, &RollbackError{Tool: tool, Binary: bin, Err: err}
			}
			logger.Info("restored backup", "binary", bin, "dir", dir)
			restored = append(restored, Restored{Binary: bin, Dir: dir})
		}
	}

	if len(restored) == 0 {
		return nil, &RollbackError{Tool: tool, Err: ErrNoBackupsFound}
	}
	return restored, nil
}

func restoreBackup(ctx context.Context, current, backup string) error {
	temp := RollbackTempPath(current)

	liveExists, err := pathExists(current)
	if err != nil {
		return err
	}
	if liveExists {
		if err := removeIfExists(temp); err != nil {
			return err
		}
		if err := renameFile(current, temp); err != nil {
			return fmt.Errorf("move current %s aside: %w", filepath.Base(current), err)
		}
	}

	if err := renameFile(backup, current); err != nil {
		if liveExists {
			if undoErr := renameFile(temp, current); undoErr != nil {
				return fmt.Errorf("restore backup: %w (putting the current binary back also failed: %v; it remains at %s)", err, undoErr, temp)
			}
		}
		return fmt.Errorf("restore backup: %w", err)
	}

	if liveExists {
		if err := removeFile(temp); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.FromContext(ctx).Warn("remove rollback temp file", "path", temp, "err", err)
		}
	}
	return nil
}

// CleanupBackup deletes the backups of tool's binaries in dirs, continuing
// past failures.
func (r *Registry) CleanupBackup(ctx context.Context, tool ToolID, dirs []string) (CleanupResult, error) {
	binaries, err := r.table.Lookup(tool)
	if err != nil {
		return CleanupResult{}, err
	}

	var result CleanupResult
	for _, dir := range dirs {
		for _, bin := range binaries {
			backup := BackupPath(filepath.Join(dir, bin))
			exists, err := pathExists(backup)
			if err != nil || !exists {
				continue
			}
			removeBackup(ctx, backup, fmt.Sprintf("%s (%s)", bin, dir), &result)
		}
	}
	return result, nil
}

// CleanupAllBackups deletes every backup of a known binary in dirs,
// continuing past failures.
func (r *Registry) CleanupAllBackups(ctx context.Context, dirs []string) CleanupResult {
	logger := logx.FromContext(ctx)
	var result CleanupResult
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("scan for backups", "dir", dir, "err", err)
			continue
		}
		for _, entry := range entries {
			if _, ok := r.backupOwner(entry); !ok {
				continue
			}
			bin := strings.TrimSuffix(entry.Name(), backupSuffix)
			removeBackup(ctx, filepath.Join(dir, entry.Name()), fmt.Sprintf("%s (%s)", bin, dir), &result)
		}
	}
	return result
}

func removeBackup(ctx context.Context, path, label string, result *CleanupResult) {
	if err := removeFile(path); err != nil {
		logx.FromContext(ctx).Warn("remove backup", "path", path, "err", err)
		result.Failed = append(result.Failed, label)
		return
	}
	result.Removed = append(result.Removed, label)
}
