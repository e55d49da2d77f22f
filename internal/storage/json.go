package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// JSONStore implements Store using a single JSON file for persistence.
// It keeps the decoded file in memory and reloads it when the file's
// modification time moves, so several processes can share one file.
type JSONStore struct {
	filePath     string
	mu           sync.RWMutex
	data         *JSONData
	lastModified time.Time
}

// JSONData represents the structure of data stored in JSON format
type JSONData struct {
	Entries     map[string]string `json:"entries"`
	LastUpdated time.Time         `json:"last_updated"`
}

// NewJSONStore creates a new JSON-based store
func NewJSONStore(config Config) (*JSONStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	store := &JSONStore{filePath: config.Path}

	// Initialize with empty data if file doesn't exist
	if err := store.ensureFileExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	if err := store.loadData(); err != nil {
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return store, nil
}

// ensureFileExists creates the JSON file with empty data if it doesn't exist
func (j *JSONStore) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return j.saveData(&JSONData{Entries: map[string]string{}})
	}
	return nil
}

// loadData reloads the file when it changed on disk.
// It uses double-checked locking: a read-lock stat for the common case,
// and a write-lock slow path that re-checks before reading the file.
func (j *JSONStore) loadData() error {
	info, err := os.Stat(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	j.mu.RLock()
	fresh := j.data != nil && !info.ModTime().After(j.lastModified)
	j.mu.RUnlock()
	if fresh {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// Another goroutine may have loaded while we waited for the write lock.
	if j.data != nil && !info.ModTime().After(j.lastModified) {
		return nil
	}

	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data JSONData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if data.Entries == nil {
		data.Entries = map[string]string{}
	}

	j.data = &data
	j.lastModified = info.ModTime()
	return nil
}

// saveData writes the file atomically through a temp file and rename.
// Callers hold the write lock (or own j exclusively during construction).
func (j *JSONStore) saveData(data *JSONData) error {
	data.LastUpdated = time.Now()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.filePath), filepath.Base(j.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(fileData); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, j.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	if info, err := os.Stat(j.filePath); err == nil {
		j.lastModified = info.ModTime()
	}
	return nil
}

func (j *JSONStore) Get(_ context.Context, key string) (string, error) {
	if err := j.loadData(); err != nil {
		return "", err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	v, ok := j.data.Entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (j *JSONStore) Set(_ context.Context, key, value string) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	next := cloneEntries(j.data.Entries)
	next[key] = value
	data := &JSONData{Entries: next}
	if err := j.saveData(data); err != nil {
		return err
	}
	j.data = data
	return nil
}

func (j *JSONStore) Delete(_ context.Context, key string) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.data.Entries[key]; !ok {
		return nil
	}
	next := cloneEntries(j.data.Entries)
	delete(next, key)
	data := &JSONData{Entries: next}
	if err := j.saveData(data); err != nil {
		return err
	}
	j.data = data
	return nil
}

func (j *JSONStore) Keys(_ context.Context, prefix string) ([]string, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	keys := make([]string, 0, len(j.data.Entries))
	for k := range j.data.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks that the backing file is still readable.
func (j *JSONStore) Ping(_ context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("json storage unavailable: %w", err)
	}
	return nil
}

// Close is a no-op; every write is already flushed to disk.
func (j *JSONStore) Close() error {
	return nil
}

func cloneEntries(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
