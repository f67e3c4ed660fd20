package internal

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/restruct-labs/restruct/internal/types"
)

const cacheFileName = "refine_cache.gob"

// fileMetadata fingerprints an interchange file. A cached outcome is
// reusable only while both the hash and the modification time match.
type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

// CacheEntry holds the refinement outcome of one file.
type CacheEntry struct {
	Metadata     fileMetadata
	Results      []tt.Result
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache persists per-file refinement outcomes between runs, so watch
// mode and repeated batch runs skip files that have not changed.
type Cache struct {
	dir     string
	entries map[string]CacheEntry
	mutex   sync.Mutex
	maxAge  time.Duration
}

// NewCache opens (or creates) the cache under dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c := &Cache{
		dir:     dir,
		entries: make(map[string]CacheEntry),
		maxAge:  24 * time.Hour,
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	return c, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.dir, cacheFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewDecoder(file).Decode(&c.entries)
}

func (c *Cache) save() error {
	file, err := os.Create(filepath.Join(c.dir, cacheFileName))
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewEncoder(file).Encode(c.entries)
}

// Set stores the outcome for filename.
func (c *Cache) Set(filename string, results []tt.Result) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	metadata, err := getFileMetadata(filename)
	if err != nil {
		return err
	}
	c.entries[filename] = CacheEntry{
		Metadata:     metadata,
		Results:      results,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	return c.save()
}

// Get returns the cached outcome for filename if it is still valid.
func (c *Cache) Get(filename string) ([]tt.Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}
	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		return nil, false
	}
	entry.LastAccessed = time.Now()
	c.entries[filename] = entry
	return entry.Results, true
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	current, err := getFileMetadata(filename)
	return err != nil || current != entry.Metadata
}

// SetMaxAge overrides the default entry lifetime.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.maxAge = d
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]CacheEntry)
	_ = c.save() // manual operation, stale file is harmless
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("opening %s: %w", filename, err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("hashing %s: %w", filename, err)
	}
	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, err
	}
	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
