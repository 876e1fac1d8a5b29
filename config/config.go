// Package config loads the service configuration from the user's
// voicemorph directory, creating a default file on first run.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voicemorph/voicemorph/audio"
)

// Re-assigned in tests to point the loader at a temp directory.
var osUserHomeDir = os.UserHomeDir

// Config is the structure of config.json.
type Config struct {
	Discord DiscordConfig `json:"discord"`
	Redis   RedisConfig   `json:"redis"`
	Audio   AudioConfig   `json:"audio"`
}

// DiscordConfig holds bot credentials and channel wiring.
type DiscordConfig struct {
	Token         string `json:"token"`
	ServerID      string `json:"server_id"`
	LogChannelID  string `json:"log_channel_id"`
	CommandPrefix string `json:"command_prefix"`
	MasterUser    string `json:"master_user"`
}

// RedisConfig holds the status-reporting cache connection. An empty Addr
// disables status reporting.
type RedisConfig struct {
	Addr             string `json:"addr"`
	Password         string `json:"password"`
	DB               int    `json:"db"`
	StatusTTLSeconds int    `json:"status_ttl_seconds"`
}

// AudioConfig holds the pipeline tuning knobs.
type AudioConfig struct {
	BlockSize       int     `json:"block_size"`
	OverlapFraction float64 `json:"overlap_fraction"`
	GateThreshold   float64 `json:"gate_threshold"`
	GraceSeconds    int     `json:"grace_seconds"`
	SilencePolicy   string  `json:"silence_policy"` // "drop" or "zero"
	Gain            float64 `json:"gain"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			CommandPrefix: "!",
		},
		Redis: RedisConfig{
			Addr:             "localhost:6379",
			StatusTTLSeconds: 60,
		},
		Audio: AudioConfig{
			BlockSize:       audio.FrameSize * 10, // 200ms of speech per transform
			GateThreshold:   audio.DefaultGateThreshold,
			GraceSeconds:    30,
			SilencePolicy:   "drop",
			Gain:            1.0,
		},
	}
}

// Load reads ~/.voicemorph/config.json, creating it with defaults when
// missing, and validates the result.
func Load() (*Config, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".voicemorph")
	path := filepath.Join(dir, "config.json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if err := writeConfig(dir, path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open config file at %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not decode config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot be constructed
// from. These are fatal at startup, never retried.
func (c *Config) Validate() error {
	if c.Audio.BlockSize <= 0 {
		return fmt.Errorf("%w: block_size must be positive: %d", audio.ErrInvalidConfig, c.Audio.BlockSize)
	}
	if c.Audio.OverlapFraction < 0 || c.Audio.OverlapFraction >= 1 {
		return fmt.Errorf("%w: overlap_fraction must be in [0, 1): %f", audio.ErrInvalidConfig, c.Audio.OverlapFraction)
	}
	if c.Audio.GraceSeconds < 0 {
		return fmt.Errorf("%w: grace_seconds must not be negative: %d", audio.ErrInvalidConfig, c.Audio.GraceSeconds)
	}
	switch c.Audio.SilencePolicy {
	case "", "drop", "zero":
	default:
		return fmt.Errorf("%w: silence_policy must be \"drop\" or \"zero\": %q", audio.ErrInvalidConfig, c.Audio.SilencePolicy)
	}
	return nil
}

func writeConfig(dir, path string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write default config: %w", err)
	}
	return nil
}
