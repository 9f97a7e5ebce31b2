// Package storage persists the favorite preset and app-level preferences.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"breathbox/internal/core/model"
	"breathbox/internal/logger"
)

const favoriteFileName = "favorite.json"

// PresetStore holds at most one saved favorite preset.
type PresetStore interface {
	// Load returns the favorite, or ok=false when none is saved. A
	// malformed record counts as absent, never as an error.
	Load() (model.Settings, bool, error)
	Save(settings model.Settings) error
	Clear() error
}

// favoriteRecord is the on-disk shape: integer seconds per phase, total in
// minutes.
type favoriteRecord struct {
	InhaleTime int `json:"inhaleTime"`
	HoldTime   int `json:"holdTime"`
	ExhaleTime int `json:"exhaleTime"`
	Duration   int `json:"duration"`
}

// Compile-time interface check.
var _ PresetStore = (*FileStore)(nil)

// FileStore keeps the favorite preset as a single JSON file.
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{dir: dir, log: log}
}

// Load reads the favorite preset from disk.
func (store *FileStore) Load() (model.Settings, bool, error) {
	rawData, err := os.ReadFile(store.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Settings{}, false, nil
		}
		return model.Settings{}, false, fmt.Errorf("read favorite: %w", err)
	}

	var record favoriteRecord
	if err := json.Unmarshal(rawData, &record); err != nil {
		store.log.Warn("favorite preset malformed, ignoring: %v", err)
		return model.Settings{}, false, nil
	}

	settings := record.settings()
	if err := settings.Validate(); err != nil {
		store.log.Warn("favorite preset unusable, ignoring: %v", err)
		return model.Settings{}, false, nil
	}
	return settings, true, nil
}

// Save writes the favorite preset, overwriting any previous one.
func (store *FileStore) Save(settings model.Settings) error {
	if err := os.MkdirAll(store.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := json.MarshalIndent(newFavoriteRecord(settings), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal favorite: %w", err)
	}

	if err := os.WriteFile(store.path(), serialized, 0o644); err != nil {
		return fmt.Errorf("write favorite: %w", err)
	}
	store.log.Debug("favorite preset saved")
	return nil
}

// Clear removes the favorite preset. Clearing an absent favorite is a no-op.
func (store *FileStore) Clear() error {
	if err := os.Remove(store.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (store *FileStore) path() string {
	return filepath.Join(store.dir, favoriteFileName)
}

func newFavoriteRecord(settings model.Settings) favoriteRecord {
	return favoriteRecord{
		InhaleTime: int(settings.Inhale / time.Second),
		HoldTime:   int(settings.Hold / time.Second),
		ExhaleTime: int(settings.Exhale / time.Second),
		Duration:   int(settings.Total / time.Minute),
	}
}

func (record favoriteRecord) settings() model.Settings {
	return model.FromSeconds(record.InhaleTime, record.HoldTime, record.ExhaleTime, record.Duration)
}

// Compile-time interface check.
var _ PresetStore = (*MemoryStore)(nil)

// MemoryStore keeps the favorite in memory. Backs tests and the fallback
// path when no user config directory is available.
type MemoryStore struct {
	mu     sync.Mutex
	record *model.Settings
}

// NewMemoryStore creates an empty in-memory preset store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (store *MemoryStore) Load() (model.Settings, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.record == nil {
		return model.Settings{}, false, nil
	}
	return *store.record, true, nil
}

func (store *MemoryStore) Save(settings model.Settings) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.record = &settings
	return nil
}

func (store *MemoryStore) Clear() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.record = nil
	return nil
}
