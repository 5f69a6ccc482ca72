package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/lang"
)

func newTestCache(t *testing.T, ttlHours int) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache"), ttlHours, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func sampleResult(t *testing.T) (*complexity.Result, []byte) {
	t.Helper()
	src := []byte("func f(a int) int {\n\tif a > 0 {\n\t\treturn 1\n\t}\n\treturn 0\n}\n")
	return complexity.Analyze("f.go", string(src)), src
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	c, err := New(filepath.Join(tmpDir, "nested", "cache"), 24, true)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if !c.Enabled() {
		t.Error("cache should be enabled")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "nested", "cache")); err != nil {
		t.Errorf("New() should create cache directory: %v", err)
	}

	c, err = New("", 0, false)
	if err != nil {
		t.Fatalf("New() error for disabled cache: %v", err)
	}
	if c.Enabled() {
		t.Error("cache should be disabled")
	}

	_, err = New("", 24, true)
	assert.Error(t, err, "enabled cache needs a directory")
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t, 24)
	result, src := sampleResult(t)

	require.NoError(t, c.Put("pkg/f.go", lang.Go, src, result))

	got, ok := c.Get("pkg/f.go", lang.Go, src)
	require.True(t, ok, "Get() should hit for identical content")
	assert.Equal(t, result, got)
}

func TestGetMisses(t *testing.T) {
	c := newTestCache(t, 24)
	result, src := sampleResult(t)
	require.NoError(t, c.Put("f.go", lang.Go, src, result))

	tests := []struct {
		name    string
		path    string
		lang    lang.Language
		content []byte
	}{
		{"unknown path", "g.go", lang.Go, src},
		{"changed content", "f.go", lang.Go, append([]byte("// edited\n"), src...)},
		{"different language", "f.go", lang.TypeScript, src},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := c.Get(tt.path, tt.lang, tt.content)
			assert.False(t, ok)
		})
	}
}

func TestExpiry(t *testing.T) {
	c := newTestCache(t, 1)
	result, src := sampleResult(t)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	require.NoError(t, c.Put("f.go", lang.Go, src, result))

	c.now = func() time.Time { return start.Add(30 * time.Minute) }
	_, ok := c.Get("f.go", lang.Go, src)
	assert.True(t, ok)

	c.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, ok = c.Get("f.go", lang.Go, src)
	assert.False(t, ok, "entry older than TTL must miss")

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries, "expired entries are removed on lookup")
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := newTestCache(t, 0)
	result, src := sampleResult(t)

	start := time.Now()
	c.now = func() time.Time { return start }
	require.NoError(t, c.Put("f.go", lang.Go, src, result))

	c.now = func() time.Time { return start.Add(24 * 365 * time.Hour) }
	_, ok := c.Get("f.go", lang.Go, src)
	assert.True(t, ok)
}

func TestCorruptEntryIsDropped(t *testing.T) {
	c := newTestCache(t, 24)
	require.NoError(t, os.WriteFile(c.keyPath("f.go", lang.Go), []byte("{not json"), 0600))

	_, ok := c.Get("f.go", lang.Go, []byte("x"))
	assert.False(t, ok)
	_, err := os.Stat(c.keyPath("f.go", lang.Go))
	assert.True(t, os.IsNotExist(err))
}

func TestStatsAndClear(t *testing.T) {
	c := newTestCache(t, 24)
	result, src := sampleResult(t)
	require.NoError(t, c.Put("a.go", lang.Go, src, result))
	require.NoError(t, c.Put("b.go", lang.Go, src, result))

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalSize)

	require.NoError(t, c.Clear())
	_, ok := c.Get("b.go", lang.Go, src)
	assert.False(t, ok)
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 0, false)
	require.NoError(t, err)
	result, src := sampleResult(t)

	assert.NoError(t, c.Put("f.go", lang.Go, src, result))
	_, ok := c.Get("f.go", lang.Go, src)
	assert.False(t, ok)
	assert.NoError(t, c.Clear())

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
	_, ok = nilCache.Get("f.go", lang.Go, src)
	assert.False(t, ok)
}

func TestHashBytes(t *testing.T) {
	h1 := HashBytes([]byte("hello"))
	h2 := HashBytes([]byte("hello"))
	h3 := HashBytes([]byte("world"))

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}
