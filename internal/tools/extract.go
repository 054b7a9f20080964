package tools

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bodgit/sevenzip"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

// maxMemberBytes caps a single extracted binary (1 GiB).
var maxMemberBytes int64 = 1 << 30

// ArchiveFormat is the packaging of a downloaded release.
type ArchiveFormat string

const (
	ArchiveNone     ArchiveFormat = "none"
	ArchiveZip      ArchiveFormat = "zip"
	ArchiveSevenZip ArchiveFormat = "7z"
)

// Ext is the file extension used for the downloaded archive.
func (f ArchiveFormat) Ext() string {
	switch f {
	case ArchiveZip:
		return ".zip"
	case ArchiveSevenZip:
		return ".7z"
	default:
		return ""
	}
}

// Extractor pulls target binaries out of an archive into destDir, promoting
// each one through the Installer.
type Extractor interface {
	Extract(ctx context.Context, tool ToolID, archivePath, destDir string, targets []string) ([]string, error)
}

type archiveMember struct {
	name  string
	isDir bool
	open  func() (io.ReadCloser, error)
}

type memberLister func(archivePath string) ([]archiveMember, io.Closer, error)

type archiveExtractor struct {
	label     string
	list      memberLister
	goos      string
	installer *Installer
	reporter  Reporter
}

func newArchiveExtractor(label string, list memberLister, goos string, installer *Installer, reporter Reporter) *archiveExtractor {
	if goos == "" {
		goos = runtime.GOOS
	}
	return &archiveExtractor{label: label, list: list, goos: goos, installer: installer, reporter: reporterOrNop(reporter)}
}

// NewZipExtractor returns an Extractor for .zip archives. goos decides
// whether extracted binaries are made executable; empty means the host.
func NewZipExtractor(goos string, installer *Installer, reporter Reporter) Extractor {
	return newArchiveExtractor("archive", listZipMembers, goos, installer, reporter)
}

// NewSevenZipExtractor returns an Extractor for .7z archives.
func NewSevenZipExtractor(goos string, installer *Installer, reporter Reporter) Extractor {
	return newArchiveExtractor("7z archive", listSevenZipMembers, goos, installer, reporter)
}

// ExtractorFor selects the extractor for format.
func ExtractorFor(format ArchiveFormat, goos string, installer *Installer, reporter Reporter) (Extractor, error) {
	switch format {
	case ArchiveZip:
		return NewZipExtractor(goos, installer, reporter), nil
	case ArchiveSevenZip:
		return NewSevenZipExtractor(goos, installer, reporter), nil
	default:
		return nil, &ConfigError{Field: "archive", Reason: fmt.Sprintf("unsupported archive format %q", format)}
	}
}

func listZipMembers(archivePath string) ([]archiveMember, io.Closer, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, err
	}
	members := make([]archiveMember, 0, len(reader.File))
	for _, f := range reader.File {
		members = append(members, archiveMember{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
	}
	return members, reader, nil
}

func listSevenZipMembers(archivePath string) ([]archiveMember, io.Closer, error) {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, nil, err
	}
	members := make([]archiveMember, 0, len(reader.File))
	for _, f := range reader.File {
		members = append(members, archiveMember{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
	}
	return members, reader, nil
}

// Extract implements Extractor. Matching is by base name, case-insensitive;
// directories inside the archive are flattened. Members already installed
// stay installed when a later member fails.
func (e *archiveExtractor) Extract(ctx context.Context, tool ToolID, archivePath, destDir string, targets []string) ([]string, error) {
	logger := logx.FromContext(ctx).With("tool", tool, "archive", archivePath)

	emit(e.reporter, tool, 99, fmt.Sprintf("Opening %s...", e.label))
	members, closer, err := e.list(archivePath)
	if err != nil {
		return nil, &ArchiveError{Archive: archivePath, Reason: fmt.Sprintf("open %s: %v", e.label, err), Err: err}
	}
	defer closer.Close()

	emit(e.reporter, tool, 99, fmt.Sprintf("Scanning %d files...", len(members)))

	wanted := make(map[string]string, len(targets))
	for _, t := range targets {
		wanted[strings.ToLower(t)] = t
	}

	var extracted []string
	done := map[string]bool{}
	for _, m := range members {
		if m.isDir {
			continue
		}
		base := memberBaseName(m.name)
		key := strings.ToLower(base)
		target, ok := wanted[key]
		if !ok {
			continue
		}
		if done[key] {
			logger.Warn("skipping duplicate archive member", "member", m.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return extracted, err
		}

		emit(e.reporter, tool, 99, fmt.Sprintf("Extracting %s...", target))
		if err := e.extractMember(ctx, archivePath, m, filepath.Join(destDir, target)); err != nil {
			return extracted, err
		}
		done[key] = true
		extracted = append(extracted, target)
		logger.Debug("extracted member", "member", m.name, "target", target)
	}

	if len(extracted) != len(targets) {
		return extracted, &ArchiveError{
			Archive: archivePath,
			Reason:  fmt.Sprintf("missing files: found %v, expected %v", extracted, targets),
			Err:     ErrMissingMembers,
		}
	}
	return extracted, nil
}

func (e *archiveExtractor) extractMember(ctx context.Context, archivePath string, m archiveMember, dest string) error {
	staging := StagingPath(dest)
	if err := removeIfExists(staging); err != nil {
		return &InstallError{Op: InstallOpStage, Dest: dest, Err: err}
	}

	size, err := writeMember(m, staging)
	if err != nil {
		discardStaging(ctx, staging)
		return &ArchiveError{Archive: archivePath, Reason: fmt.Sprintf("extract %s: %v", m.name, err), Err: err}
	}
	if size == 0 {
		discardStaging(ctx, staging)
		return &IntegrityError{Path: staging, Reason: fmt.Sprintf("extracted file %s is empty", filepath.Base(dest))}
	}

	if e.goos != "windows" {
		if err := os.Chmod(staging, 0o755); err != nil {
			discardStaging(ctx, staging)
			return fmt.Errorf("chmod %s: %w", staging, err)
		}
	}

	return e.installer.Install(ctx, dest, staging)
}

func writeMember(m archiveMember, staging string) (int64, error) {
	rc, err := m.open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(staging, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxMemberBytes+1))
	if err != nil {
		out.Close()
		return n, err
	}
	if n > maxMemberBytes {
		out.Close()
		return n, fmt.Errorf("member exceeds %d bytes", maxMemberBytes)
	}
	return n, out.Close()
}

// memberBaseName strips any directory part, accepting either separator.
func memberBaseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func reporterOrNop(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}
