package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"breathbox/internal/core/model"
	"breathbox/internal/logger"
)

func testSettings() model.Settings {
	return model.Settings{
		Inhale: 4 * time.Second,
		Hold:   6 * time.Second,
		Exhale: 7 * time.Second,
		Total:  6 * time.Minute,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir(), logger.New(logger.LevelOff, nil))

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want absent favorite", ok, err)
	}

	want := testSettings()
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("favorite missing after save")
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestFileStoreClear(t *testing.T) {
	store := NewFileStore(t.TempDir(), logger.New(logger.LevelOff, nil))

	if err := store.Save(testSettings()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("after clear: ok=%v err=%v, want absent favorite", ok, err)
	}

	// Clearing again must stay silent.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFileStoreMalformedRecordIsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, favoriteFileName), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	store := NewFileStore(dir, logger.New(logger.LevelOff, nil))
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("malformed favorite: ok=%v err=%v, want treated as absent", ok, err)
	}
}

func TestFileStoreUnusableRecordIsAbsent(t *testing.T) {
	dir := t.TempDir()
	// Valid JSON, but no breath phases at all.
	junk := []byte(`{"inhaleTime":0,"holdTime":5,"exhaleTime":0,"duration":5}`)
	if err := os.WriteFile(filepath.Join(dir, favoriteFileName), junk, 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}

	store := NewFileStore(dir, logger.New(logger.LevelOff, nil))
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("unusable favorite: ok=%v err=%v, want treated as absent", ok, err)
	}
}

func TestFileStoreClampsOnLoad(t *testing.T) {
	dir := t.TempDir()
	record := []byte(`{"inhaleTime":99,"holdTime":4,"exhaleTime":6,"duration":500}`)
	if err := os.WriteFile(filepath.Join(dir, favoriteFileName), record, 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}

	store := NewFileStore(dir, logger.New(logger.LevelOff, nil))
	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Inhale != model.MaxPhase || got.Total != model.MaxTotal {
		t.Fatalf("values not clamped: %+v", got)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	if _, ok, _ := store.Load(); ok {
		t.Fatal("fresh memory store should have no favorite")
	}
	if err := store.Save(testSettings()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, _ := store.Load()
	if !ok || got != testSettings() {
		t.Fatalf("round trip mismatch: ok=%v got=%+v", ok, got)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("favorite survived clear")
	}
}

func TestAppConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	config, err := LoadAppConfig(dir)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if config != DefaultAppConfig() {
		t.Fatalf("missing file should yield defaults, got %+v", config)
	}

	config.SoundEnabled = false
	config.Verbose = true
	config.StepRate = 45
	if err := SaveAppConfig(dir, config); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadAppConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != config {
		t.Fatalf("round trip mismatch: got %+v, want %+v", loaded, config)
	}
}

func TestAppConfigRejectsWildStepRate(t *testing.T) {
	dir := t.TempDir()
	raw := []byte("sound_enabled: true\nanimation_step_rate: 500\n")
	if err := os.WriteFile(filepath.Join(dir, configFileName), raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := LoadAppConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.StepRate != DefaultAppConfig().StepRate {
		t.Fatalf("StepRate = %d, want default %d", loaded.StepRate, DefaultAppConfig().StepRate)
	}
}
