package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bikelog/internal/bike"
	"bikelog/internal/style"
)

// Config represents the application configuration
type Config struct {
	Strava     StravaConfig              `json:"strava" yaml:"strava"`
	Bikes      []bike.Rule               `json:"bikes,omitempty" yaml:"bikes"`
	LineStyles map[string]style.Override `json:"line_styles,omitempty" yaml:"line_styles"`
	Aliases    map[string]string         `json:"aliases,omitempty" yaml:"aliases"`
	Display    DisplayConfig             `json:"display" yaml:"display"`
	Fetch      FetchConfig               `json:"fetch" yaml:"fetch"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit" yaml:"distance_unit"`
}

// FetchConfig tunes how activities are downloaded
type FetchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	PageSize    int `json:"page_size" yaml:"page_size"`
}

// Imperial reports whether distances should be shown in miles
func (d DisplayConfig) Imperial() bool {
	return d.DistanceUnit == "mi"
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
		Fetch: FetchConfig{
			Concurrency: 4,
			PageSize:    100,
		},
	}
}

// Load reads the configuration from ~/.bikelog/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path. The file may be JSON or YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if cfg.Fetch.Concurrency <= 0 {
		cfg.Fetch.Concurrency = defaults.Fetch.Concurrency
	}
	if cfg.Fetch.PageSize <= 0 {
		cfg.Fetch.PageSize = defaults.Fetch.PageSize
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.bikelog/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes the configuration to path as indented JSON
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := Example()
	return SaveFile(path, &example)
}

// Example returns a config with placeholder credentials and sample bikes
func Example() Config {
	cfg := DefaultConfig()
	cfg.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	cfg.Bikes = []bike.Rule{
		{Pattern: "canyon|tarmac", Code: "Road"},
		{Pattern: "stumpjumper", Code: "MTB"},
	}
	cfg.LineStyles = map[string]style.Override{
		"Ride": {Color: "C00000A0", Width: 4},
	}
	cfg.Aliases = map[string]string{
		"229781": "Hawk Hill",
	}
	return cfg
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	for i, r := range c.Bikes {
		if r.Pattern == "" || r.Code == "" {
			return fmt.Errorf("bikes[%d] needs both pattern and code", i)
		}
	}

	if c.Fetch.Concurrency > 16 {
		return fmt.Errorf("fetch.concurrency must be at most 16, got %d", c.Fetch.Concurrency)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".bikelog"), nil
}
