package includes

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

const cacheFileSuffix = ".cache"

// CacheEntry is what lands on disk for one scanned source file.
type CacheEntry struct {
	SourcePath string
	Directives []Directive
	Timestamp  time.Time
	FileSize   int64
	ModTime    time.Time
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// CacheManager keeps include scan results on disk, one gob file per source.
// An entry is stale as soon as the source's size or mtime differs.
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex
	stats    *CacheStats
}

// NewCacheManager creates the cache directory if needed.
// If cacheDir is empty, it defaults to ".cache/kmodflags" under the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache", "kmodflags")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &CacheManager{
		cacheDir: cacheDir,
		stats:    &CacheStats{LastResetTime: time.Now()},
	}, nil
}

// Dir returns the directory holding the cache files.
func (cm *CacheManager) Dir() string {
	return cm.cacheDir
}

func (cm *CacheManager) cachePath(sourcePath string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("%016x%s", xxh3.HashString(sourcePath), cacheFileSuffix))
}

// Get returns the cached directives for sourcePath if the file is unchanged.
func (cm *CacheManager) Get(sourcePath string) ([]Directive, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	entry, err := readEntry(cm.cachePath(sourcePath))
	if err != nil || entry.SourcePath != sourcePath {
		cm.recordCacheMiss()
		return nil, false
	}

	info, err := os.Stat(sourcePath)
	if err != nil || !info.ModTime().Equal(entry.ModTime) || info.Size() != entry.FileSize {
		cm.recordCacheMiss()
		return nil, false
	}

	cm.recordCacheHit()
	return entry.Directives, true
}

// Set stores directives together with the current size and mtime of sourcePath.
func (cm *CacheManager) Set(sourcePath string, directives []Directive) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	entry := CacheEntry{
		SourcePath: sourcePath,
		Directives: directives,
		Timestamp:  time.Now(),
		FileSize:   info.Size(),
		ModTime:    info.ModTime(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.WriteFile(cm.cachePath(sourcePath), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for sourcePath, if any.
func (cm *CacheManager) Delete(sourcePath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if err := os.Remove(cm.cachePath(sourcePath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// ClearCache removes every cache file but keeps the directory.
func (cm *CacheManager) ClearCache() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	files, err := cm.cacheFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// CleanExpiredCache removes entries written more than maxAge ago and
// returns how many were removed.
func (cm *CacheManager) CleanExpiredCache(maxAge time.Duration) (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	files, err := cm.cacheFiles()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, path := range files {
		entry, err := readEntry(path)
		if err != nil || entry.Timestamp.Before(cutoff) {
			// Unreadable entries are as good as expired.
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// GetCacheStats returns storage and hit/miss statistics
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	cm.mutex.RLock()
	files, err := cm.cacheFiles()
	cm.mutex.RUnlock()
	if err != nil {
		return nil, err
	}

	var totalSize int64
	for _, path := range files {
		if info, err := os.Stat(path); err == nil {
			totalSize += info.Size()
		}
	}

	stats := cm.GetPerformanceStats()
	stats["cache_enabled"] = true
	stats["cache_dir"] = cm.cacheDir
	stats["cache_files"] = len(files)
	stats["total_size"] = totalSize
	return stats, nil
}

func (cm *CacheManager) cacheFiles() ([]string, error) {
	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cacheFileSuffix) {
			continue
		}
		files = append(files, filepath.Join(cm.cacheDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func readEntry(path string) (*CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
