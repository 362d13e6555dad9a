// Package config loads server configuration from environment variables, with
// an optional YAML overlay file for operators who prefer file-based config.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized runtime option from spec.md section 6.
type Config struct {
	Port                 string  `yaml:"port"`
	TickRateHz           int     `yaml:"tickRateHz"`
	BroadcastDeltaHz     int     `yaml:"broadcastDeltaHz"`
	BroadcastSnapshotHz  int     `yaml:"broadcastSnapshotHz"`
	MatchDurationSeconds int     `yaml:"matchDurationSeconds"`
	KillTarget           int     `yaml:"killTarget"`
	RoomCapacity         int     `yaml:"roomCapacity"`
	IdleTimeoutMs        int     `yaml:"idleTimeoutMs"`
	RespawnDelayMs       int     `yaml:"respawnDelayMs"`
	PickupRadius         float64 `yaml:"pickupRadius"`
	CrateRespawnMs       int     `yaml:"crateRespawnMs"`
}

// Default returns the built-in defaults named in spec.md section 6.
func Default() Config {
	return Config{
		Port:                 "8080",
		TickRateHz:           60,
		BroadcastDeltaHz:     20,
		BroadcastSnapshotHz:  1,
		MatchDurationSeconds: 420,
		KillTarget:           20,
		RoomCapacity:         8,
		IdleTimeoutMs:        30000,
		RespawnDelayMs:       3000,
		PickupRadius:         32.0,
		CrateRespawnMs:       15000,
	}
}

// Load builds a Config starting from Default, applying an optional YAML
// overlay file named by ARENA_CONFIG_FILE, then applying environment
// variables on top. Env vars win over file values; file values win over
// built-in defaults.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("ARENA_CONFIG_FILE"); path != "" {
		overlaid, err := applyYAMLFile(cfg, path)
		if err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
		cfg = overlaid
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyYAMLFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &base); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	return base, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PORT"); ok {
		cfg.Port = v
	}
	setIntEnv("TICK_RATE_HZ", &cfg.TickRateHz)
	setIntEnv("BROADCAST_DELTA_HZ", &cfg.BroadcastDeltaHz)
	setIntEnv("BROADCAST_SNAPSHOT_HZ", &cfg.BroadcastSnapshotHz)
	setIntEnv("MATCH_DURATION_SECONDS", &cfg.MatchDurationSeconds)
	setIntEnv("KILL_TARGET", &cfg.KillTarget)
	setIntEnv("ROOM_CAPACITY", &cfg.RoomCapacity)
	setIntEnv("IDLE_TIMEOUT_MS", &cfg.IdleTimeoutMs)
	setIntEnv("RESPAWN_DELAY_MS", &cfg.RespawnDelayMs)
	setIntEnv("CRATE_RESPAWN_MS", &cfg.CrateRespawnMs)
	setFloatEnv("PICKUP_RADIUS", &cfg.PickupRadius)
}

func setIntEnv(name string, dest *int) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dest = parsed
}

func setFloatEnv(name string, dest *float64) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*dest = parsed
}
