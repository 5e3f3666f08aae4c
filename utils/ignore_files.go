package utils

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// IgnoreFileName holds extra patterns for project walks, one per line.
const IgnoreFileName = ".kmodflags-ignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// defaultIgnored are directory or file names never worth indexing in a driver tree.
var defaultIgnored = []string{
	".git",
	".svn",
	".idea",
	".vscode",
	".cache",
	".tmp_versions",
	"node_modules",
	"*.o",
	"*.ko",
	"*.mod.c",
	"*.cmd",
	"*.orig",
	"*.rej",
}

// GetIgnorePatterns reads the project's ignore file. A missing file means no patterns.
// Parsed patterns are reused until the file's mtime changes.
func GetIgnorePatterns(rootDir string) ([]string, error) {
	ignorePath := filepath.Join(rootDir, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.patterns, nil
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// IsDefaultIgnored reports whether any component of a slash-separated
// relative path matches the built-in ignore list.
func IsDefaultIgnored(relativePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		for _, pattern := range defaultIgnored {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// IsIgnored checks a slash-separated relative path against user patterns.
// A pattern ending in "/" ignores a whole directory.
func IsIgnored(relativePath string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimSuffix(pattern, "/")
			if relativePath == dir || strings.HasPrefix(relativePath, pattern) {
				return true
			}
			continue
		}
		if match, _ := filepath.Match(pattern, relativePath); match {
			return true
		}
		if match, _ := filepath.Match(pattern, filepath.Base(relativePath)); match {
			return true
		}
	}
	return false
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
