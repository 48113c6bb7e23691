package app

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the host window settings.
type Config struct {
	WindowScale int  `json:"window_scale"`
	Vsync       bool `json:"vsync"`
	Fullscreen  bool `json:"fullscreen"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		WindowScale: 3,
		Vsync:       true,
		Fullscreen:  false,
	}
}

// LoadConfig reads a JSON config file, filling missing fields with
// defaults. A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	config := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if config.WindowScale < 1 {
		config.WindowScale = 1
	}
	return config, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
