package tools

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallFreshDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "yt-dlp")
	writeFile(t, StagingPath(dest), "v1")

	require.NoError(t, NewInstaller().Install(context.Background(), dest, StagingPath(dest)))

	assert.Equal(t, "v1", readFile(t, dest))
	requireMissing(t, StagingPath(dest))
	requireMissing(t, BackupPath(dest))
}

func TestInstallKeepsSingleBackup(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "yt-dlp")
	writeFile(t, dest, "v1")
	writeFile(t, BackupPath(dest), "v0")
	writeFile(t, StagingPath(dest), "v2")

	require.NoError(t, NewInstaller().Install(context.Background(), dest, StagingPath(dest)))

	assert.Equal(t, "v2", readFile(t, dest))
	assert.Equal(t, "v1", readFile(t, BackupPath(dest)))
	requireMissing(t, StagingPath(dest))
}

func TestInstallActivationFailureRestoresBackup(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "deno")
	staging := StagingPath(dest)
	writeFile(t, dest, "v1")
	writeFile(t, staging, "v2")

	stubRename(t, func(from, _ string) error {
		if from == staging {
			return errors.New("file in use")
		}
		return nil
	})

	err := NewInstaller().Install(context.Background(), dest, staging)
	require.Error(t, err)

	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, InstallOpActivate, ie.Op)
	assert.NotErrorIs(t, err, ErrInstallDegraded)

	assert.Equal(t, "v1", readFile(t, dest))
	requireMissing(t, BackupPath(dest))
	requireMissing(t, staging)
}

func TestInstallActivationFailureWithoutPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "deno")
	staging := StagingPath(dest)
	writeFile(t, staging, "v1")

	stubRename(t, func(string, string) error { return errors.New("denied") })

	err := NewInstaller().Install(context.Background(), dest, staging)
	require.Error(t, err)
	requireMissing(t, dest)
	requireMissing(t, staging)
}

func TestInstallDegradedWhenCompensationFails(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "aria2c")
	staging := StagingPath(dest)
	backup := BackupPath(dest)
	writeFile(t, dest, "v1")
	writeFile(t, staging, "v2")

	stubRename(t, func(from, _ string) error {
		if from == staging || from == backup {
			return errors.New("locked")
		}
		return nil
	})

	err := NewInstaller().Install(context.Background(), dest, staging)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstallDegraded)

	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, backup, ie.Backup)
	assert.NotNil(t, ie.Cause)

	requireMissing(t, dest)
	assert.Equal(t, "v1", readFile(t, backup))
}

func TestInstallBackupRenameFailureLeavesDestUntouched(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "ffmpeg")
	staging := StagingPath(dest)
	writeFile(t, dest, "v1")
	writeFile(t, staging, "v2")

	stubRename(t, func(from, _ string) error {
		if from == dest {
			return errors.New("sharing violation")
		}
		return nil
	})

	err := NewInstaller().Install(context.Background(), dest, staging)
	var ie *InstallError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, InstallOpBackup, ie.Op)
	assert.Equal(t, "v1", readFile(t, dest))
}

func TestStageCopyRejectsEmptySource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "deno")
	writeFile(t, src, "")
	dest := filepath.Join(dir, "bin", "deno")

	_, err := NewInstaller().StageCopy(context.Background(), src, dest)
	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	requireMissing(t, StagingPath(dest))
}

func TestStageCopyWritesStagingFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "deno")
	writeFile(t, src, "binary")
	dest := filepath.Join(dir, "bin", "deno")

	staging, err := NewInstaller().StageCopy(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, StagingPath(dest), staging)
	assert.Equal(t, "binary", readFile(t, staging))
	requireMissing(t, dest)
}
