package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecursive(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "dir1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	paths := populateDir(t, dir)

	store, err := CreateSnapshotInMemory(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Paths()
	require.NoError(t, err)
	assert.ElementsMatch(t, paths, got)
}

func TestCollectorNonRecursive(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "dir1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	populateDir(t, dir)

	store, err := CreateSnapshotInMemory(dir, WithWalk(false))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Paths()
	require.NoError(t, err)
	// 10 root-level files plus the two subdirectories, nothing deeper
	assert.Len(t, got, 12)
	assert.NotContains(t, got, filepath.Join(dir, "dir_0", "file_0_0"))
	assert.Contains(t, got, filepath.Join(dir, "dir_0"))
}

func TestCollectorFilterExcludesWithoutPruning(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "dir1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	populateDir(t, dir)

	filter, err := FilterFromPatterns([]string{`dir_0$`})
	require.NoError(t, err)

	store, err := CreateSnapshotInMemory(dir, WithFilter(filter))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Paths()
	require.NoError(t, err)

	// the directory itself is excluded from the snapshot, but the traversal
	// still descends into it
	assert.NotContains(t, got, filepath.Join(dir, "dir_0"))
	assert.Contains(t, got, filepath.Join(dir, "dir_0", "file_0_0"))
	assert.Contains(t, got, filepath.Join(dir, "dir_1"))
}

func TestCollectorSurfacesVanishedEntry(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "dir1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	populateDir(t, dir)

	// delete one entry after it has been listed but before it is stat'd, so
	// the collector hits a file that no longer exists
	vanishing := filepath.Join(dir, "file_5")
	filter := Filter(func(path string) bool {
		if path == vanishing {
			require.NoError(t, os.Remove(path))
		}
		return true
	})

	target := filepath.Join(tempDir, "dir1.snapshot")
	_, err := CreateSnapshot(dir, target, WithFilter(filter))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// the failed walk rolls back: nothing recorded before the failure survives
	store, err := Open(target)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectorFailsForMissingDirectory(t *testing.T) {
	tempDir := t.TempDir()

	_, err := CreateSnapshotInMemory(filepath.Join(tempDir, "no_such_dir"))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestCollectorFailsForFileRoot(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "a_file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := CreateSnapshotInMemory(file)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestCollectorFailsBeforeWritingWhenTargetExists(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "dir1")
	require.NoError(t, os.Mkdir(dir, 0o755))
	populateDir(t, dir)

	occupied := filepath.Join(tempDir, "occupied")
	require.NoError(t, os.WriteFile(occupied, []byte("keep me"), 0o644))

	_, err := CreateSnapshot(dir, occupied)
	assert.ErrorIs(t, err, ErrSnapshotExists)

	// the occupied file must be left untouched
	content, err := os.ReadFile(occupied)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))
}

func TestFilterFromPatternsRejectsBadRegex(t *testing.T) {
	_, err := FilterFromPatterns([]string{`[unclosed`})
	assert.Error(t, err)
}

func TestFilterFromIgnoreFile(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("MissingFileMeansNoFilter", func(t *testing.T) {
		filter, err := FilterFromIgnoreFile(filepath.Join(tempDir, "absent"))
		require.NoError(t, err)
		assert.Nil(t, filter)
	})

	t.Run("PatternsExclude", func(t *testing.T) {
		ignoreFile := filepath.Join(tempDir, ".dirsnapignore")
		require.NoError(t, os.WriteFile(ignoreFile, []byte("*.log\n"), 0o644))

		filter, err := FilterFromIgnoreFile(ignoreFile)
		require.NoError(t, err)
		require.NotNil(t, filter)
		assert.False(t, filter("/some/dir/app.log"))
		assert.True(t, filter("/some/dir/app.txt"))
	})
}
