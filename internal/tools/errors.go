package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool indicates a tool id that is not in the table.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingMembers indicates an archive lacked one or more target binaries.
	ErrMissingMembers = errors.New("archive missing required members")

	// ErrNoBackupsFound indicates a rollback found nothing to restore.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrInstallDegraded indicates activation failed and the backup could not be
	// moved back: the live binary is gone and the previous version sits at the
	// backup path. The engine does not attempt further recovery.
	ErrInstallDegraded = errors.New("install left binary missing")
)

// NetworkError covers connection failures and non-2xx responses.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IntegrityError reports a downloaded or extracted file that failed validation.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: %s", e.Path, e.Reason)
}

// ArchiveError reports unreadable archives and missing members.
type ArchiveError struct {
	Archive string
	Reason  string
	Err     error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil && e.Reason == "" {
		return fmt.Sprintf("archive %s: %v", e.Archive, e.Err)
	}
	return fmt.Sprintf("archive %s: %s", e.Archive, e.Reason)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// InstallOp names the installer step that failed.
type InstallOp string

const (
	InstallOpBackup   InstallOp = "backup"
	InstallOpActivate InstallOp = "activate"
	InstallOpStage    InstallOp = "stage"
)

// InstallError reports a failed backup or activation rename.
type InstallError struct {
	Op     InstallOp
	Dest   string
	Backup string
	Err    error
	// Cause is the activation error when compensation also failed.
	Cause error
}

func (e *InstallError) Error() string {
	if errors.Is(e.Err, ErrInstallDegraded) {
		return fmt.Sprintf(
			"activate %s failed (%v) and restoring the backup also failed; %s is missing and the previous version remains at %s, manual repair required",
			e.Dest, e.Cause, e.Dest, e.Backup,
		)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Dest, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// RollbackError reports a failed restore.
type RollbackError struct {
	Tool   ToolID
	Binary string
	Err    error
}

func (e *RollbackError) Error() string {
	if errors.Is(e.Err, ErrNoBackupsFound) {
		return fmt.Sprintf("no backups found for %s", e.Tool)
	}
	return fmt.Sprintf("rollback %s: restore %s: %v", e.Tool, e.Binary, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }

// ConfigError reports an invalid tool id, directory, or setting.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func unknownTool(id ToolID) error {
	return &ConfigError{Field: "tool", Reason: fmt.Sprintf("unknown tool: %s", id), Err: ErrUnknownTool}
}
