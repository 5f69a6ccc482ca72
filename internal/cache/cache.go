// Package cache stores per-file complexity results on disk, keyed by path and
// validated by a BLAKE3 digest of the analysed content.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
)

// formatVersion is bumped whenever the engine's output for the same input changes.
const formatVersion = 1

// Cache provides file-based caching for analysis results. A nil or disabled
// Cache misses on every lookup and ignores writes.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Entry is the on-disk record for one file.
type Entry struct {
	Version   int                `json:"version"`
	Path      string             `json:"path"`
	Language  lang.Language      `json:"language"`
	Hash      string             `json:"hash"`
	Timestamp time.Time          `json:"timestamp"`
	Result    *complexity.Result `json:"result"`
}

// New creates a new cache instance. ttlHours <= 0 disables expiry.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		return nil, errors.New("cache: directory required")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		now:     time.Now,
	}, nil
}

// Enabled reports whether lookups can hit.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached result for path when the stored entry was produced
// from identical content for the same language and has not expired.
func (c *Cache) Get(path string, l lang.Language, content []byte) (*complexity.Result, bool) {
	if !c.Enabled() {
		return nil, false
	}

	file := c.keyPath(path, l)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Result == nil {
		_ = os.Remove(file)
		return nil, false
	}
	if entry.Version != formatVersion || entry.Hash != HashBytes(content) {
		return nil, false
	}
	if c.expired(entry.Timestamp) {
		_ = os.Remove(file)
		return nil, false
	}

	return entry.Result, true
}

// Put stores the result for path, replacing any previous entry.
func (c *Cache) Put(path string, l lang.Language, content []byte, result *complexity.Result) error {
	if !c.Enabled() || result == nil {
		return nil
	}

	data, err := json.Marshal(Entry{
		Version:   formatVersion,
		Path:      path,
		Language:  l,
		Hash:      HashBytes(content),
		Timestamp: c.now(),
		Result:    result,
	})
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", path, err)
	}

	// Write-then-rename so concurrent readers never see a partial entry.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.keyPath(path, l)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) expired(ts time.Time) bool {
	return c.ttl > 0 && c.now().Sub(ts) > c.ttl
}

// keyPath converts a path/language pair to a cache file name.
func (c *Cache) keyPath(path string, l lang.Language) string {
	hash := blake3.Sum256([]byte(string(l) + "\x00" + filepath.ToSlash(path)))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:16])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = now.Sub(newest)
	}
	return stats, nil
}
