package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mini-maxit/executor/internal/logger"
	"github.com/mini-maxit/executor/pkg/constants"
	"github.com/mini-maxit/executor/utils"
	"go.uber.org/zap"
)

type CacheEntry struct {
	DirPath  string    `json:"dir_path"`
	CachedAt time.Time `json:"cached_at"`
	Language string    `json:"language"`
}

type CacheMetadata struct {
	Entries map[string]CacheEntry `json:"entries"` // key is ArtifactKey of the build
}

// ArtifactCache keeps the output of successful builds so that resubmitting the
// same source skips the compiler.
type ArtifactCache interface {
	// GetCachedArtifacts copies the cached build for key into dstDir.
	GetCachedArtifacts(key, dstDir string) (bool, error)
	// CacheArtifacts stores the files of srcDir for which skip returns false.
	CacheArtifacts(key, language, srcDir string, skip func(name string) bool) error
	CleanExpiredCache() error
	InitCache() error
}

type artifactCache struct {
	mu           sync.Mutex
	logger       *zap.SugaredLogger
	cacheDirPath string
	ttl          time.Duration
	metadata     *CacheMetadata
}

func NewArtifactCache(cacheDirPath string) ArtifactCache {
	return &artifactCache{
		logger:       logger.NewNamedLogger("cache"),
		cacheDirPath: cacheDirPath,
		ttl:          time.Duration(constants.CacheTTLHours) * time.Hour,
		metadata:     &CacheMetadata{Entries: make(map[string]CacheEntry)},
	}
}

// ArtifactKey identifies a build by everything that can change its output.
func ArtifactKey(language string, compileCmd []string, sources map[string]string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00", language)
	for _, arg := range compileCmd {
		fmt.Fprintf(h, "%s\x00", arg)
	}
	// json.Marshal sorts map keys.
	encoded, _ := json.Marshal(sources)
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil))
}

// InitCache creates the cache directory and loads metadata left by a previous run.
func (c *artifactCache) InitCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.cacheDirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := os.ReadFile(c.metadataPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read cache metadata: %w", err)
	default:
		var metadata CacheMetadata
		if err := json.Unmarshal(data, &metadata); err != nil {
			c.logger.Warnf("Discarding corrupt cache metadata: %v", err)
		} else if metadata.Entries != nil {
			c.metadata = &metadata
		}
	}

	if err := c.cleanExpiredLocked(); err != nil {
		c.logger.Warnf("Failed to clean expired cache: %v", err)
	}
	return nil
}

func (c *artifactCache) GetCachedArtifacts(key, dstDir string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.metadata.Entries[key]
	if !exists {
		return false, nil
	}

	if time.Since(entry.CachedAt) > c.ttl {
		c.logger.Debugf("Cache expired for %s build %s", entry.Language, key)
		c.removeEntryLocked(key)
		return false, c.saveMetadataLocked()
	}

	if _, err := os.Stat(entry.DirPath); os.IsNotExist(err) {
		c.logger.Debugf("Cached build no longer exists: %s", entry.DirPath)
		delete(c.metadata.Entries, key)
		return false, c.saveMetadataLocked()
	}

	if err := utils.CopyDirFiles(entry.DirPath, dstDir, nil); err != nil {
		return false, fmt.Errorf("failed to restore cached build: %w", err)
	}

	c.logger.Debugf("Cache hit for %s build %s", entry.Language, key)
	return true, nil
}

func (c *artifactCache) CacheArtifacts(key, language, srcDir string, skip func(name string) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.metadata.Entries[key]; !exists {
		if len(c.metadata.Entries) >= constants.CacheMaxEntries {
			c.evictOldestEntry()
		}
	}

	dirPath := filepath.Join(c.cacheDirPath, key)
	if err := utils.RemoveIO(dirPath, true, true); err != nil {
		return err
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	if err := utils.CopyDirFiles(srcDir, dirPath, skip); err != nil {
		_ = utils.RemoveIO(dirPath, true, true)
		return fmt.Errorf("failed to copy build to cache: %w", err)
	}

	c.metadata.Entries[key] = CacheEntry{
		DirPath:  dirPath,
		CachedAt: time.Now(),
		Language: language,
	}

	c.logger.Debugf("Cached %s build %s", language, key)
	return c.saveMetadataLocked()
}

// CleanExpiredCache removes expired cache entries and their files.
func (c *artifactCache) CleanExpiredCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanExpiredLocked()
}

func (c *artifactCache) cleanExpiredLocked() error {
	now := time.Now()
	removed := 0
	for key, entry := range c.metadata.Entries {
		if now.Sub(entry.CachedAt) > c.ttl {
			c.removeEntryLocked(key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Infof("Cleaned %d expired cache entries", removed)
		return c.saveMetadataLocked()
	}
	return nil
}

func (c *artifactCache) evictOldestEntry() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, entry := range c.metadata.Entries {
		if first || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
			first = false
		}
	}

	if !first {
		c.removeEntryLocked(oldestKey)
		c.logger.Debugf("Evicted oldest cache entry: %s", oldestKey)
	}
}

func (c *artifactCache) removeEntryLocked(key string) {
	entry, exists := c.metadata.Entries[key]
	if !exists {
		return
	}
	if err := os.RemoveAll(entry.DirPath); err != nil {
		c.logger.Warnf("Failed to remove cache entry %s: %v", entry.DirPath, err)
	}
	delete(c.metadata.Entries, key)
}

func (c *artifactCache) saveMetadataLocked() error {
	data, err := json.MarshalIndent(c.metadata, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.metadataPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	return os.Rename(tmp, c.metadataPath())
}

func (c *artifactCache) metadataPath() string {
	return filepath.Join(c.cacheDirPath, constants.CacheMetadataFile)
}
