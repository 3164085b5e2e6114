package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"TickerBoard/internal/model"
)

// FileStore keeps the whole snapshot in one JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot. A missing file yields an empty snapshot.
func (f *FileStore) Load() (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FileStore) read() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{}, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return &snap, nil
}

func (f *FileStore) update(fn func(*Snapshot)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, err := f.read()
	if err != nil {
		return err
	}
	fn(snap)
	snap.SavedAt = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0644)
}

func (f *FileStore) SaveWidgets(widgets []model.Widget) error {
	return f.update(func(s *Snapshot) { s.Widgets = Strip(widgets) })
}

func (f *FileStore) SaveProviders(providers []model.ProviderConfig) error {
	return f.update(func(s *Snapshot) { s.Providers = providers })
}

func (f *FileStore) Close() error { return nil }
