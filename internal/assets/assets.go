// Package assets resolves content-relative paths against a stack of content
// roots and caches what it reads.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when no content root holds the requested path.
var ErrNotFound = errors.New("file not found")

type root struct {
	name string
	fsys fs.FS
}

// Manager loads files from content roots.
// Roots are searched in reverse order (last added = highest priority).
type Manager struct {
	roots []root
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddDir adds a directory on disk as a content root.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("opening content dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content dir %s is not a directory", dir)
	}
	m.AddFS(dir, os.DirFS(dir))
	return nil
}

// AddFS adds a file system as a content root.
func (m *Manager) AddFS(name string, fsys fs.FS) {
	m.mu.Lock()
	m.roots = append(m.roots, root{name: name, fsys: fsys})
	m.mu.Unlock()
}

// Clean normalizes a content-relative path to the slash-separated form
// fs.FS expects.
func Clean(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "."
	}
	return p
}

// Source returns the content root holding p.
func (m *Manager) Source(p string) (fs.FS, bool) {
	p = Clean(p)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		if _, err := fs.Stat(m.roots[i].fsys, p); err == nil {
			return m.roots[i].fsys, true
		}
	}
	return nil, false
}

// Resolve returns the on-disk path of p when its root is a directory added
// with AddDir, or the root name joined with p otherwise.
func (m *Manager) Resolve(p string) (string, error) {
	p = Clean(p)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		if _, err := fs.Stat(m.roots[i].fsys, p); err == nil {
			return filepath.Join(m.roots[i].name, filepath.FromSlash(p)), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, p)
}

// Load reads a file from the highest-priority root that has it.
func (m *Manager) Load(p string) ([]byte, error) {
	p = Clean(p)

	if data, ok := m.cache.Get(p); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	for i := len(m.roots) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(m.roots[i].fsys, p)
		if err == nil {
			m.cache.Set(p, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("reading %s: %w", p, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
}

// Invalidate drops a cached file so the next Load reads it again.
func (m *Manager) Invalidate(p string) {
	m.cache.Delete(Clean(p))
}

// Close drops all roots and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
