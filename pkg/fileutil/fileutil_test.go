package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rohmanhakim/nps-explorer/pkg/fileutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesMissingParents(t *testing.T) {
	for _, rel := range []string{"cache", filepath.Join("a", "b", "c")} {
		target := filepath.Join(t.TempDir(), rel)

		require.Nil(t, fileutil.EnsureDir(target))
		require.Nil(t, fileutil.EnsureDir(target), "existing directory is fine")

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDir_PermissionError(t *testing.T) {
	if filepath.Separator == '\\' {
		t.Skip("Skipping permission test on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	tmpDir := t.TempDir()
	readonlyDir := filepath.Join(tmpDir, "readonly")
	require.NoError(t, os.MkdirAll(readonlyDir, 0555))

	err := fileutil.EnsureDir(filepath.Join(readonlyDir, "subdir"))
	require.Error(t, err)

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.False(t, fileErr.Retryable)
		assert.Equal(t, fileutil.ErrCausePathError, fileErr.Cause)
	}
}

func TestWriteFileAtomic_CreatesAndOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "cache.json")

	require.NoError(t, fileutil.WriteFileAtomic(target, []byte(`{"a":"1"}`), 0644))
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1"}`, string(content))

	require.NoError(t, fileutil.WriteFileAtomic(target, []byte(`{}`), 0644))
	content, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(content))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "cache.json")

	for i := 0; i < 3; i++ {
		require.NoError(t, fileutil.WriteFileAtomic(target, []byte("{}"), 0644))
	}

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}

func TestWriteFileAtomic_ReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	tmpDir := t.TempDir()
	readonlyDir := filepath.Join(tmpDir, "ro")
	require.NoError(t, os.MkdirAll(readonlyDir, 0555))
	t.Cleanup(func() { os.Chmod(readonlyDir, 0755) })

	err := fileutil.WriteFileAtomic(filepath.Join(readonlyDir, "cache.json"), []byte("{}"), 0644)
	require.Error(t, err)

	var fileErr *fileutil.FileError
	if assert.ErrorAs(t, err, &fileErr) {
		assert.Equal(t, fileutil.ErrCauseWriteFailure, fileErr.Cause)
	}
}
