package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

// ServiceConfig wires a Service. Zero fields get defaults.
type ServiceConfig struct {
	Table      Table
	BinDir     string
	GOOS       string
	Downloader *Downloader
	Installer  *Installer
	Releases   ReleaseSource
	Reporter   Reporter
	// Variants holds the default variant per tool for batch downloads.
	Variants map[ToolID]string
}

// Service sequences downloads, extraction, installation and backup
// management for the configured tools.
type Service struct {
	table      Table
	binDir     string
	goos       string
	downloader *Downloader
	installer  *Installer
	registry   *Registry
	releases   ReleaseSource
	reporter   Reporter
	variants   map[ToolID]string
}

// NewService validates cfg and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if strings.TrimSpace(cfg.BinDir) == "" {
		return nil, &ConfigError{Field: "bin_dir", Reason: "bin directory is required"}
	}
	if len(cfg.Table.specs) == 0 {
		return nil, &ConfigError{Field: "tools", Reason: "tool table is empty"}
	}

	s := &Service{
		table:      cfg.Table,
		binDir:     cfg.BinDir,
		goos:       cfg.GOOS,
		downloader: cfg.Downloader,
		installer:  cfg.Installer,
		releases:   cfg.Releases,
		reporter:   reporterOrNop(cfg.Reporter),
		variants:   cfg.Variants,
	}
	if s.goos == "" {
		s.goos = runtime.GOOS
	}
	if s.installer == nil {
		s.installer = NewInstaller()
	}
	if s.downloader == nil {
		s.downloader = NewDownloader(WithReporter(s.reporter))
	}
	if s.releases == nil {
		s.releases = NewReleaseResolver()
	}
	s.registry = NewRegistry(s.table)
	return s, nil
}

// Table returns the tool table the service operates on.
func (s *Service) Table() Table { return s.table }

// BinDir returns the app-private install directory.
func (s *Service) BinDir() string { return s.binDir }

// DownloadTools installs each tool into the bin directory, one after another
// in table order. The first failure aborts the batch.
func (s *Service) DownloadTools(ctx context.Context, ids []ToolID, channels map[ToolID]Channel) (string, error) {
	if len(ids) == 0 {
		return "", &ConfigError{Field: "tools", Reason: "no tools selected"}
	}
	selected := map[ToolID]bool{}
	for _, id := range ids {
		if _, err := s.table.Lookup(id); err != nil {
			return "", err
		}
		selected[id] = true
	}

	if err := os.MkdirAll(s.binDir, 0o755); err != nil {
		return "", &ConfigError{Field: "bin_dir", Reason: fmt.Sprintf("create %s", s.binDir), Err: err}
	}

	for _, id := range s.table.Tools() {
		if !selected[id] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		channel := effectiveChannel(id, channels[id])
		if err := s.installTool(ctx, id, s.binDir, channel, s.variants[id]); err != nil {
			return "", fmt.Errorf("%s: %w", id, err)
		}
	}
	return "Selected tools downloaded successfully", nil
}

// UpdateToolAtPath installs the latest build of tool into an existing
// directory, backing up whatever is there.
func (s *Service) UpdateToolAtPath(ctx context.Context, tool, destDir, variant, channel string) (string, error) {
	id, err := s.table.ParseToolID(tool)
	if err != nil {
		return "", err
	}
	ch, err := ParseChannel(channel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(destDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", &ConfigError{Field: "dest_dir", Reason: fmt.Sprintf("directory does not exist: %s", destDir)}
	case err != nil:
		return "", &ConfigError{Field: "dest_dir", Reason: fmt.Sprintf("stat %s", destDir), Err: err}
	case !info.IsDir():
		return "", &ConfigError{Field: "dest_dir", Reason: fmt.Sprintf("not a directory: %s", destDir)}
	}

	if err := s.installTool(ctx, id, destDir, effectiveChannel(id, ch), variant); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s updated at %s", id, destDir), nil
}

// effectiveChannel limits nightly builds to the tools that publish them.
func effectiveChannel(id ToolID, ch Channel) Channel {
	if ch == ChannelNightly && (id == ToolYtDlp || id == ToolFFmpeg) {
		return ChannelNightly
	}
	return ChannelStable
}

func (s *Service) installTool(ctx context.Context, id ToolID, dir string, channel Channel, variant string) error {
	logger := logx.FromContext(ctx).With("tool", id, "dir", dir)
	binaries, err := s.table.Lookup(id)
	if err != nil {
		return err
	}

	release, err := s.releases.Resolve(ctx, id, channel, variant)
	if err != nil {
		return err
	}
	if release.UsedFallback {
		logger.Warn("release lookup failed, using fallback url", "url", release.URL)
	}
	logger.Info("installing", "url", release.URL, "channel", channel, "archive", release.Archive)

	emit(s.reporter, id, 0, "Starting download...")

	switch release.Archive {
	case ArchiveNone, "":
		return s.installSingle(ctx, id, dir, binaries[0], release.URL)
	}
	return s.installArchive(ctx, id, dir, binaries, release)
}

func (s *Service) installSingle(ctx context.Context, id ToolID, dir, binary, url string) error {
	dest := filepath.Join(dir, binary)
	staging, err := s.downloader.Download(ctx, id, url, dest)
	if err != nil {
		return err
	}
	if s.goos != "windows" {
		if err := os.Chmod(staging, 0o755); err != nil {
			discardStaging(ctx, staging)
			return fmt.Errorf("chmod %s: %w", staging, err)
		}
	}
	if err := s.installer.Install(ctx, dest, staging); err != nil {
		return err
	}
	emit(s.reporter, id, 100, fmt.Sprintf("Installed %s", binary))
	return nil
}

func (s *Service) installArchive(ctx context.Context, id ToolID, dir string, binaries []string, release Release) error {
	archive := filepath.Join(dir, fmt.Sprintf("%s-update%s", id, release.Archive.Ext()))
	extractor, err := ExtractorFor(release.Archive, s.goos, s.installer, s.reporter)
	if err != nil {
		return err
	}

	staged, err := s.downloader.Download(ctx, id, release.URL, archive)
	if err != nil {
		return err
	}
	defer func() {
		if err := removeIfExists(staged); err != nil {
			logx.FromContext(ctx).Warn("remove downloaded archive", "path", staged, "err", err)
		}
	}()

	emit(s.reporter, id, 99, fmt.Sprintf("Extracting %s from %s...", strings.Join(binaries, ", "), release.Archive))
	names, err := extractor.Extract(ctx, id, staged, dir, binaries)
	if err != nil {
		return err
	}
	emit(s.reporter, id, 100, "Extracted: "+strings.Join(names, ", "))
	return nil
}

// StageManualTool installs a user-supplied binary into the bin directory.
// The file name must match the tool's primary binary. Sidecar binaries found
// next to the source are installed as well; a sidecar failure is logged only.
// It returns the installed path.
func (s *Service) StageManualTool(ctx context.Context, tool, sourcePath string) (string, error) {
	id, err := s.table.ParseToolID(tool)
	if err != nil {
		return "", err
	}
	binaries, err := s.table.Lookup(id)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(sourcePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", &ConfigError{Field: "source", Reason: "source path does not exist"}
	case err != nil:
		return "", &ConfigError{Field: "source", Reason: fmt.Sprintf("stat %s", sourcePath), Err: err}
	case !info.Mode().IsRegular():
		return "", &ConfigError{Field: "source", Reason: "source path is not a file"}
	}

	expected := binaries[0]
	if got := filepath.Base(sourcePath); !strings.EqualFold(got, expected) {
		return "", &ConfigError{
			Field:  "source",
			Reason: fmt.Sprintf("Expected '%s' but got '%s'. Please select the correct binary.", expected, got),
		}
	}

	if err := os.MkdirAll(s.binDir, 0o755); err != nil {
		return "", &ConfigError{Field: "bin_dir", Reason: fmt.Sprintf("create %s", s.binDir), Err: err}
	}

	dest := filepath.Join(s.binDir, expected)
	if err := s.stageOne(ctx, sourcePath, dest); err != nil {
		return "", err
	}

	logger := logx.FromContext(ctx).With("tool", id)
	for _, sidecar := range binaries[1:] {
		src := filepath.Join(filepath.Dir(sourcePath), sidecar)
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug("sidecar not present next to source", "binary", sidecar)
			continue
		}
		if err := s.stageOne(ctx, src, filepath.Join(s.binDir, sidecar)); err != nil {
			logger.Warn("stage sidecar", "binary", sidecar, "err", err)
		}
	}
	return dest, nil
}

func (s *Service) stageOne(ctx context.Context, src, dest string) error {
	staging, err := s.installer.StageCopy(ctx, src, dest)
	if err != nil {
		return err
	}
	if s.goos != "windows" {
		if err := os.Chmod(staging, 0o755); err != nil {
			discardStaging(ctx, staging)
			return fmt.Errorf("chmod %s: %w", staging, err)
		}
	}
	return s.installer.Install(ctx, dest, staging)
}

// ResolveSystemToolPath looks for tool's primary binary on PATH.
func (s *Service) ResolveSystemToolPath(tool string) (string, bool, error) {
	id, err := s.table.ParseToolID(tool)
	if err != nil {
		return "", false, err
	}
	return ResolveSystemPath(s.table, id)
}

// BackupDirs returns the bin directory if it exists plus the existing parent
// directories of extraPaths, without duplicates.
func (s *Service) BackupDirs(extraPaths []string) []string {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		clean := filepath.Clean(dir)
		if seen[clean] {
			return
		}
		info, err := os.Stat(clean)
		if err != nil || !info.IsDir() {
			return
		}
		seen[clean] = true
		dirs = append(dirs, clean)
	}

	add(s.binDir)
	for _, p := range extraPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		add(filepath.Dir(p))
	}
	return dirs
}

// ListToolBackups returns the tools with at least one backup.
func (s *Service) ListToolBackups(ctx context.Context, extraPaths []string) ([]ToolID, error) {
	return s.registry.ListBackedUpTools(ctx, s.BackupDirs(extraPaths)), nil
}

// RollbackTool restores the backups of tool's binaries.
func (s *Service) RollbackTool(ctx context.Context, tool string, extraPaths []string) (string, error) {
	id, err := s.table.ParseToolID(tool)
	if err != nil {
		return "", err
	}
	restored, err := s.registry.Rollback(ctx, id, s.BackupDirs(extraPaths))
	if err != nil {
		return "", err
	}
	labels := make([]string, len(restored))
	for i, r := range restored {
		labels[i] = r.String()
	}
	return "Rolled back: " + strings.Join(labels, ", "), nil
}

// CleanupToolBackup deletes the backups of tool's binaries.
func (s *Service) CleanupToolBackup(ctx context.Context, tool string, extraPaths []string) (string, error) {
	id, err := s.table.ParseToolID(tool)
	if err != nil {
		return "", err
	}
	result, err := s.registry.CleanupBackup(ctx, id, s.BackupDirs(extraPaths))
	if err != nil {
		return "", err
	}
	msg := "Cleaned: " + strings.Join(result.Removed, ", ")
	if len(result.Failed) > 0 {
		msg += "; failed to remove: " + strings.Join(result.Failed, ", ")
	}
	return msg, nil
}

// CleanupAllBackups deletes every backup of a known binary.
func (s *Service) CleanupAllBackups(ctx context.Context, extraPaths []string) (string, error) {
	result := s.registry.CleanupAllBackups(ctx, s.BackupDirs(extraPaths))
	msg := fmt.Sprintf("Removed %d backup file(s)", len(result.Removed))
	if len(result.Failed) > 0 {
		msg += fmt.Sprintf("; %d could not be removed", len(result.Failed))
	}
	return msg, nil
}
