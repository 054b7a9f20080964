package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

const (
	stagingSuffix     = ".new"
	backupSuffix      = ".old"
	rollbackTmpSuffix = ".rollback-tmp"
)

// Filesystem seams, swapped in tests to inject failures.
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// StagingPath returns the scratch path a file is written to before activation.
func StagingPath(dest string) string { return dest + stagingSuffix }

// BackupPath returns the path the previous version of dest is kept at.
func BackupPath(dest string) string { return dest + backupSuffix }

// RollbackTempPath returns the path the live binary is parked at during a rollback.
func RollbackTempPath(dest string) string { return dest + rollbackTmpSuffix }

// Installer moves staged files into place, keeping one backup generation.
type Installer struct{}

// NewInstaller returns an Installer.
func NewInstaller() *Installer { return &Installer{} }

// Install promotes staging to dest. An existing dest becomes dest.old
// (replacing any older backup). If activation fails the backup is moved back;
// if that fails too the returned error wraps ErrInstallDegraded.
func (i *Installer) Install(ctx context.Context, dest, staging string) error {
	logger := logx.FromContext(ctx)
	backup := BackupPath(dest)

	destExists, err := pathExists(dest)
	if err != nil {
		return &InstallError{Op: InstallOpBackup, Dest: dest, Err: err}
	}

	if destExists {
		backupExists, err := pathExists(backup)
		if err != nil {
			return &InstallError{Op: InstallOpBackup, Dest: dest, Err: err}
		}
		if backupExists {
			// Only the immediately prior version is kept.
			if err := removeFile(backup); err != nil {
				logger.Warn("remove previous backup", "path", backup, "err", err)
			}
		}
		if err := renameFile(dest, backup); err != nil {
			return &InstallError{
				Op:   InstallOpBackup,
				Dest: dest,
				Err:  fmt.Errorf("move %s to %s: %w", dest, backup, err),
			}
		}
	}

	activateErr := renameFile(staging, dest)
	if activateErr == nil {
		logger.Debug("installed", "dest", dest, "backup", destExists)
		return nil
	}
	activateErr = fmt.Errorf("move %s to %s: %w", staging, dest, activateErr)

	if err := removeFile(staging); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("remove staging file", "path", staging, "err", err)
	}

	if !destExists {
		return &InstallError{Op: InstallOpActivate, Dest: dest, Err: activateErr}
	}

	if err := renameFile(backup, dest); err != nil {
		logger.Error("restore backup after failed activation", "dest", dest, "backup", backup, "err", err)
		return &InstallError{
			Op:     InstallOpActivate,
			Dest:   dest,
			Backup: backup,
			Err:    fmt.Errorf("%w: %v", ErrInstallDegraded, err),
			Cause:  activateErr,
		}
	}
	return &InstallError{Op: InstallOpActivate, Dest: dest, Err: activateErr}
}

// StageCopy copies src to dest's staging path, rejecting empty results. The
// caller promotes the staging file with Install.
func (i *Installer) StageCopy(ctx context.Context, src, dest string) (string, error) {
	staging := StagingPath(dest)
	if err := removeIfExists(staging); err != nil {
		return "", &InstallError{Op: InstallOpStage, Dest: dest, Err: err}
	}

	size, err := copyFile(src, staging)
	if err != nil {
		discardStaging(ctx, staging)
		return "", &InstallError{Op: InstallOpStage, Dest: dest, Err: fmt.Errorf("copy %s: %w", src, err)}
	}
	if size == 0 {
		discardStaging(ctx, staging)
		return "", &IntegrityError{Path: src, Reason: "copied file is empty"}
	}
	return staging, nil
}

func copyFile(src, dst string) (int64, error) {
	source, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	mode := os.FileMode(0o644)
	if info, err := source.Stat(); err == nil {
		mode = info.Mode().Perm()
	}

	dest, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dest, source)
	if err != nil {
		dest.Close()
		return n, err
	}
	return n, dest.Close()
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func removeIfExists(path string) error {
	if err := removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// discardStaging removes a rejected staging file; failure is logged only.
func discardStaging(ctx context.Context, staging string) {
	if err := removeIfExists(staging); err != nil {
		logx.FromContext(ctx).Warn("discard staging file", "path", staging, "err", err)
	}
}
