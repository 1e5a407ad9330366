package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"climate-dashboard/storage"
)

// Source is the workbook currently driving the dashboard.
type Source struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bundled bool   `json:"bundled"`
	Data    []byte `json:"-"`
}

// slot holds the last accepted upload. Handlers run concurrently, so every
// access goes through the lock.
type slot struct {
	mu      sync.RWMutex
	current *Source
}

func (s *slot) get() *Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *slot) set(src *Source) {
	s.mu.Lock()
	s.current = src
	s.mu.Unlock()
}

// bundledSource reads the default workbook. A missing file is not an error:
// it returns nil and the page asks for an upload.
func bundledSource(path string) (*Source, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("server: read default workbook: %w", err)
	}
	return &Source{
		ID:      storage.Digest(data)[:12],
		Name:    filepath.Base(path),
		Bundled: true,
		Data:    data,
	}, nil
}
