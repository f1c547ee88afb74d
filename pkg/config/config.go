// Package config holds the application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Scenes   ScenesConfig   `yaml:"scenes"`
	Playback PlaybackConfig `yaml:"playback"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Path  string `yaml:"path"`  // optional log file, stdout only when empty
}

// DBConfig holds the sqlite settings store location.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ScenesConfig points at the authored scene documents.
type ScenesConfig struct {
	Dir       string `yaml:"dir"`
	TextScene string `yaml:"text_scene"`
	Encounter string `yaml:"encounter"`
}

// PlaybackConfig holds the default playback preferences; the persisted user
// settings override them.
type PlaybackConfig struct {
	Language string `yaml:"language"` // en, it, ka, fa
	Pacing   string `yaml:"pacing"`   // fast, medium, native
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: "127.0.0.1:8791", ShutdownTimeout: Duration(5_000_000_000)},
		Log:      LogConfig{Level: "info"},
		DB:       DBConfig{Path: "data/aware.db"},
		Scenes:   ScenesConfig{Dir: "data/scenes", TextScene: "text_scene_01", Encounter: "encounter_01"},
		Playback: PlaybackConfig{Language: "en", Pacing: "medium"},
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// GenerateDefault writes the default configuration to path, creating parent
// directories as needed. It refuses to overwrite an existing file.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
