package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the whole mapping in a single flat JSON file.
// Every mutation rewrites the file under a store-wide lock, with a
// temp-file rename so readers never observe a half-written snapshot.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore opens (or initializes) the store at path. A missing file is
// created empty; existing contents are validated so startup fails loudly on
// corruption instead of discarding data later.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", ErrUnavailable, err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			return nil, fmt.Errorf("%w: init data file: %v", ErrUnavailable, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat data file: %v", ErrUnavailable, err)
	}

	s := &FileStore{path: path}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Load(_ context.Context) (map[string]ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *FileStore) Save(_ context.Context, data map[string]ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

func (s *FileStore) WithContent(_ context.Context, id string, mutate Mutator) (ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return ContentRecord{}, err
	}

	rec, ok := data[id]
	if !ok {
		rec = NewContentRecord()
	}
	rec = mutate(rec.Clone())
	if rec.Users == nil {
		rec.Users = make(map[string]UserProgress)
	}
	data[id] = rec

	if err := s.write(data); err != nil {
		return ContentRecord{}, err
	}
	return rec.Clone(), nil
}

func (s *FileStore) Content(_ context.Context, id string) (ContentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.read()
	if err != nil {
		return ContentRecord{}, false, err
	}
	rec, ok := data[id]
	if !ok {
		return ContentRecord{}, false, nil
	}
	return rec, true, nil
}

// read loads the file without locking; callers hold s.mu.
func (s *FileStore) read() (map[string]ContentRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]ContentRecord), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}

	data := make(map[string]ContentRecord)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: corrupt data in %s: %v", ErrUnavailable, s.path, err)
	}
	for id, rec := range data {
		if rec.Users == nil {
			rec.Users = make(map[string]UserProgress)
			data[id] = rec
		}
	}
	return data, nil
}

// write persists the full snapshot atomically; callers hold s.mu.
func (s *FileStore) write(data map[string]ContentRecord) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, tmp, err)
	}
	return nil
}
