package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/happy-paws/petshop/internal/domain"
)

// File persists the snapshot as a JSON document on local disk. Writes go
// through a temp file plus rename so a crash mid-write never leaves a
// truncated snapshot behind.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file storage backend at the given path, creating parent
// directories as needed.
func NewFile(path string) (*File, error) {
	if path == "" {
		path = "./petshop.json"
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	return &File{path: path}, nil
}

func (f *File) Save(ctx context.Context, snap *domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Load(ctx context.Context) (*domain.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("corrupt snapshot file %s: %w", f.path, err)
	}
	return &snap, true, nil
}

func (f *File) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(f.path))
	return err
}

func (f *File) Close() error {
	return nil
}
