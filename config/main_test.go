package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"UNTEN_TICK_MS", "UNTEN_SNAPSHOT_SAMPLE", "UNTEN_CARS"} {
		os.Unsetenv(key)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.CarsPath != "cars.json" {
		t.Errorf("CarsPath %q", cfg.CarsPath)
	}
	if cfg.SnapshotSample != 30 {
		t.Errorf("SnapshotSample %d", cfg.SnapshotSample)
	}
}

func TestLoadTickInterval(t *testing.T) {
	t.Setenv("UNTEN_TICK_MS", "50")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval %s, want 50ms", cfg.TickInterval)
	}

	t.Setenv("UNTEN_TICK_MS", "zero")
	if _, err := Load(); err == nil {
		t.Error("Load accepted UNTEN_TICK_MS=zero")
	}
}

func TestLoadActivityFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.json")
	consist := uuid.New()
	data := `{"player": {"comment": "local freight", "consist": "` + consist.String() + `", "node": 2, "offset": 50, "ahead": true}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{ActivityPath: path}
	a, err := cfg.LoadActivity()
	if err != nil {
		t.Fatalf("LoadActivity: %s", err)
	}
	if a.Player.Consist != consist {
		t.Errorf("consist %s, want %s", a.Player.Consist, consist)
	}
	if a.Player.Offset != 50 || !a.Player.Ahead {
		t.Errorf("placement %+v", a.Player)
	}
}
