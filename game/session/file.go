package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/wricardo/courtqueue/game/engine"
)

// FileStore keeps every area in one JSON document of the form
// {"<area>": <session>, ...}. The file is re-read on every call so that edits
// made by other tools are picked up; writes replace it atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created if needed; the file itself is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: data file path is required", engine.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, unavailable("failed to create data directory", err)
		}
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the data file location
func (fs *FileStore) Path() string {
	return fs.path
}

// Get returns the area's session
func (fs *FileStore) Get(ctx context.Context, areaID string) (*engine.Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAll()
	if err != nil {
		return nil, err
	}
	raw, exists := all[areaID]
	if !exists {
		return nil, notFound(areaID)
	}
	return decodeSession(areaID, raw)
}

// Put writes s for the area, keeping every other area untouched
func (fs *FileStore) Put(ctx context.Context, areaID string, s *engine.Session) error {
	if err := checkPut(areaID, s); err != nil {
		return err
	}
	data, err := encodeSession(s)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAll()
	if err != nil {
		return err
	}
	all[areaID] = data
	return fs.writeAll(all)
}

// List returns the area ids in the file, sorted
func (fs *FileStore) List(ctx context.Context) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAll()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Clear replaces the document with an empty object
func (fs *FileStore) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writeAll(map[string]json.RawMessage{})
}

// Snapshot decodes every area in the file. Used by the offline tools.
func (fs *FileStore) Snapshot(ctx context.Context) (map[string]*engine.Session, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	all, err := fs.readAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*engine.Session, len(all))
	for id, raw := range all {
		s, err := decodeSession(id, raw)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

// Close is a no-op
func (fs *FileStore) Close() error {
	return nil
}

// readAll loads the raw document. A missing or blank file is an empty store.
func (fs *FileStore) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, unavailable("failed to read data file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, unavailable("failed to parse data file", err)
	}
	if all == nil {
		// the document was a literal null
		all = map[string]json.RawMessage{}
	}
	return all, nil
}

// writeAll writes the document to a temp file in the same directory and
// renames it over the data file.
func (fs *FileStore) writeAll(all map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return unavailable("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return unavailable("failed to write data file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return unavailable("failed to write data file", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return unavailable("failed to replace data file", err)
	}
	return nil
}
