package storage_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mini-maxit/executor/internal/storage"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createBuildDir creates a directory holding a source file and a compiled binary.
func createBuildDir(t *testing.T, binary string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.cpp"), []byte("int main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solution"), []byte(binary), 0o755))
	return dir
}

func skipSources(name string) bool {
	return name == "main.cpp"
}

func newCache(t *testing.T, dir string) storage.ArtifactCache {
	cache := storage.NewArtifactCache(dir)
	require.NoError(t, cache.InitCache())
	return cache
}

func TestArtifactCache_InitCache(t *testing.T) {
	cachedir := filepath.Join(t.TempDir(), "nested", "cache")
	newCache(t, cachedir)

	info, err := os.Stat(cachedir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestArtifactCache_CacheAndRestore(t *testing.T) {
	cache := newCache(t, t.TempDir())
	key := storage.ArtifactKey("cpp", []string{"g++", "main.cpp"}, map[string]string{"main.cpp": "int main() {}"})

	require.NoError(t, cache.CacheArtifacts(key, "cpp", createBuildDir(t, "binary"), skipSources))

	dst := t.TempDir()
	found, err := cache.GetCachedArtifacts(key, dst)
	require.NoError(t, err)
	require.True(t, found)

	content, err := os.ReadFile(filepath.Join(dst, "solution"))
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))

	info, err := os.Stat(filepath.Join(dst, "solution"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "restored binary must stay executable")

	_, err = os.Stat(filepath.Join(dst, "main.cpp"))
	assert.True(t, os.IsNotExist(err), "sources must not be cached")
}

func TestArtifactCache_Miss(t *testing.T) {
	cache := newCache(t, t.TempDir())

	dst := t.TempDir()
	found, err := cache.GetCachedArtifacts("missing", dst)
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArtifactKey(t *testing.T) {
	sources := map[string]string{"main.cpp": "int main() {}"}
	base := storage.ArtifactKey("cpp", []string{"g++", "-O2"}, sources)

	assert.Equal(t, base, storage.ArtifactKey("cpp", []string{"g++", "-O2"}, map[string]string{"main.cpp": "int main() {}"}))
	assert.NotEqual(t, base, storage.ArtifactKey("cpp", []string{"g++", "-O0"}, sources))
	assert.NotEqual(t, base, storage.ArtifactKey("java", []string{"g++", "-O2"}, sources))
	assert.NotEqual(t, base, storage.ArtifactKey("cpp", []string{"g++", "-O2"}, map[string]string{"main.cpp": "int main() { }"}))
	assert.NotEqual(t, base, storage.ArtifactKey("cpp", []string{"g++", "-O", "2"}, sources))
}

func TestArtifactCache_CleanExpiredCache(t *testing.T) {
	cachedir := t.TempDir()
	cache := newCache(t, cachedir)
	require.NoError(t, cache.CacheArtifacts("expired", "cpp", createBuildDir(t, "old"), skipSources))

	// Rewrite the metadata to simulate an entry cached more than a TTL ago.
	metadataPath := filepath.Join(cachedir, constants.CacheMetadataFile)
	data, err := os.ReadFile(metadataPath)
	require.NoError(t, err)

	var metadata storage.CacheMetadata
	require.NoError(t, json.Unmarshal(data, &metadata))
	for key, entry := range metadata.Entries {
		entry.CachedAt = time.Now().Add(-time.Duration(constants.CacheTTLHours+1) * time.Hour)
		metadata.Entries[key] = entry
	}
	modified, err := json.MarshalIndent(metadata, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(metadataPath, modified, 0o644))

	reloaded := newCache(t, cachedir)
	found, err := reloaded.GetCachedArtifacts("expired", t.TempDir())
	require.NoError(t, err)
	assert.False(t, found)

	_, err = os.Stat(filepath.Join(cachedir, "expired"))
	assert.True(t, os.IsNotExist(err), "expired entry files must be removed")
}

func TestArtifactCache_PersistsAcrossInstances(t *testing.T) {
	cachedir := t.TempDir()
	require.NoError(t, newCache(t, cachedir).CacheArtifacts("k", "java", createBuildDir(t, "class"), skipSources))

	found, err := newCache(t, cachedir).GetCachedArtifacts("k", t.TempDir())
	require.NoError(t, err)
	assert.True(t, found)
}

func TestArtifactCache_OverwriteExistingEntry(t *testing.T) {
	cache := newCache(t, t.TempDir())
	require.NoError(t, cache.CacheArtifacts("k", "cpp", createBuildDir(t, "first"), skipSources))
	require.NoError(t, cache.CacheArtifacts("k", "cpp", createBuildDir(t, "second"), skipSources))

	dst := t.TempDir()
	found, err := cache.GetCachedArtifacts("k", dst)
	require.NoError(t, err)
	require.True(t, found)

	content, err := os.ReadFile(filepath.Join(dst, "solution"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestArtifactCache_EntryDeleted(t *testing.T) {
	cachedir := t.TempDir()
	cache := newCache(t, cachedir)
	require.NoError(t, cache.CacheArtifacts("k", "cpp", createBuildDir(t, "bin"), skipSources))
	require.NoError(t, os.RemoveAll(filepath.Join(cachedir, "k")))

	found, err := cache.GetCachedArtifacts("k", t.TempDir())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestArtifactCache_EvictsOldestWhenFull(t *testing.T) {
	cachedir := t.TempDir()
	cache := newCache(t, cachedir)
	build := createBuildDir(t, "bin")

	for i := range constants.CacheMaxEntries + 1 {
		require.NoError(t, cache.CacheArtifacts(fmt.Sprintf("key-%d", i), "cpp", build, skipSources))
	}

	found, err := cache.GetCachedArtifacts("key-0", t.TempDir())
	require.NoError(t, err)
	assert.False(t, found, "oldest entry must be evicted")

	found, err = cache.GetCachedArtifacts(fmt.Sprintf("key-%d", constants.CacheMaxEntries), t.TempDir())
	require.NoError(t, err)
	assert.True(t, found)
}

func TestArtifactCache_CacheArtifacts_InvalidSourceDir(t *testing.T) {
	cache := newCache(t, t.TempDir())

	err := cache.CacheArtifacts("k", "cpp", filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	found, err := cache.GetCachedArtifacts("k", t.TempDir())
	require.NoError(t, err)
	assert.False(t, found)
}
