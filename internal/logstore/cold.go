package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryColdStorage holds offloaded payloads keyed by object key. Used in
// tests and for replay runs where the cold store is loaded up front.
type MemoryColdStorage struct {
	mu      sync.RWMutex
	objects map[string]json.RawMessage
}

// NewMemoryColdStorage creates an empty in-memory cold store.
func NewMemoryColdStorage() *MemoryColdStorage {
	return &MemoryColdStorage{objects: make(map[string]json.RawMessage)}
}

// Put stores a payload under an object key.
func (c *MemoryColdStorage) Put(objectKey string, payload json.RawMessage) {
	if objectKey == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[objectKey] = append(json.RawMessage(nil), payload...)
}

// Fetch returns the payload stored under objectKey.
func (c *MemoryColdStorage) Fetch(ctx context.Context, objectKey string) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	payload, ok := c.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("cold storage object %q not found", objectKey)
	}
	return append(json.RawMessage(nil), payload...), nil
}

// DirectoryColdStorage serves offloaded payloads from files under a local
// directory, keyed by relative path.
type DirectoryColdStorage struct {
	dir string
}

// NewDirectoryColdStorage creates a cold store backed by dir.
func NewDirectoryColdStorage(dir string) *DirectoryColdStorage {
	return &DirectoryColdStorage{dir: dir}
}

// Fetch reads the file named by objectKey. Keys must stay inside the
// configured directory.
func (c *DirectoryColdStorage) Fetch(ctx context.Context, objectKey string) (json.RawMessage, error) {
	clean := filepath.Clean(filepath.FromSlash(objectKey))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("cold storage object key %q escapes storage root", objectKey)
	}
	data, err := os.ReadFile(filepath.Join(c.dir, clean))
	if err != nil {
		return nil, fmt.Errorf("read cold storage object %q: %w", objectKey, err)
	}
	return json.RawMessage(data), nil
}
