// Package config loads runtime settings from the environment (with an
// optional .env file) plus the activity and cars JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"nyiyui.ca/hato/unten/cars"
	"nyiyui.ca/hato/unten/sim"
)

type Config struct {
	// TickInterval is the target simulation cadence.
	TickInterval time.Duration
	// CarsPath and ActivityPath point at the JSON data files.
	CarsPath     string
	ActivityPath string
	// StatePath enables save/resume when non-empty.
	StatePath string
	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string
	// SSEAddr serves the kujo event stream when non-empty.
	SSEAddr string
	// NATSURL enables telemetry publishing when non-empty.
	NATSURL string
	// SnapshotSample publishes every nth snapshot to telemetry.
	SnapshotSample int
}

// Load reads .env if present, then the environment. Unset keys fall back
// to defaults; optional surfaces stay off unless their address is set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CarsPath:       getenvDefault("UNTEN_CARS", "cars.json"),
		ActivityPath:   getenvDefault("UNTEN_ACTIVITY", "activity.json"),
		StatePath:      os.Getenv("UNTEN_STATE_DB"),
		MetricsAddr:    os.Getenv("UNTEN_METRICS_ADDR"),
		SSEAddr:        os.Getenv("UNTEN_SSE_ADDR"),
		NATSURL:        os.Getenv("UNTEN_NATS_URL"),
		TickInterval:   sim.DefaultInterval,
		SnapshotSample: 30,
	}
	if v := os.Getenv("UNTEN_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid UNTEN_TICK_MS: %q", v)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("UNTEN_SNAPSHOT_SAMPLE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid UNTEN_SNAPSHOT_SAMPLE: %q", v)
		}
		cfg.SnapshotSample = n
	}
	return cfg, nil
}

// LoadCars parses the cars JSON file.
func (c *Config) LoadCars() (cars.Data, error) {
	var data cars.Data
	raw, err := os.ReadFile(c.CarsPath)
	if err != nil {
		return data, fmt.Errorf("read cars: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parse %s: %w", c.CarsPath, err)
	}
	return data, nil
}

// LoadActivity parses the activity JSON file.
func (c *Config) LoadActivity() (sim.Activity, error) {
	var a sim.Activity
	raw, err := os.ReadFile(c.ActivityPath)
	if err != nil {
		return a, fmt.Errorf("read activity: %w", err)
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("parse %s: %w", c.ActivityPath, err)
	}
	return a, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
