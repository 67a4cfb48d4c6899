package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikelog/internal/bike"
	"bikelog/internal/style"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Display.DistanceUnit != "km" {
		t.Errorf("Display.DistanceUnit = %q, want %q", cfg.Display.DistanceUnit, "km")
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Fetch.Concurrency = %d, want 4", cfg.Fetch.Concurrency)
	}
	if cfg.Display.Imperial() {
		t.Error("default display should be metric")
	}

	// Strava config should be empty by default
	if cfg.Strava.ClientID != "" {
		t.Errorf("Strava.ClientID should be empty, got %q", cfg.Strava.ClientID)
	}
	if cfg.Strava.ClientSecret != "" {
		t.Errorf("Strava.ClientSecret should be empty, got %q", cfg.Strava.ClientSecret)
	}
}

func TestConfigValidate(t *testing.T) {
	creds := StravaConfig{ClientID: "12345", ClientSecret: "abc123secret"}

	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "valid config",
			config: Config{Strava: creds},
		},
		{
			name:        "empty client ID",
			config:      Config{Strava: StravaConfig{ClientSecret: "abc123secret"}},
			errContains: "client_id",
		},
		{
			name:        "placeholder client ID",
			config:      Config{Strava: StravaConfig{ClientID: "YOUR_CLIENT_ID", ClientSecret: "abc123secret"}},
			errContains: "client_id",
		},
		{
			name:        "placeholder client secret",
			config:      Config{Strava: StravaConfig{ClientID: "12345", ClientSecret: "YOUR_CLIENT_SECRET"}},
			errContains: "client_secret",
		},
		{
			name:        "both placeholders",
			config:      Example(),
			errContains: "client_id", // first error wins
		},
		{
			name:        "bad distance unit",
			config:      Config{Strava: creds, Display: DisplayConfig{DistanceUnit: "furlong"}},
			errContains: "distance_unit",
		},
		{
			name:        "bike rule without code",
			config:      Config{Strava: creds, Bikes: []bike.Rule{{Pattern: "canyon"}}},
			errContains: "bikes[0]",
		},
		{
			name:        "too much concurrency",
			config:      Config{Strava: creds, Fetch: FetchConfig{Concurrency: 64}},
			errContains: "concurrency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
  "strava": {"client_id": "1", "client_secret": "s"},
  "bikes": [{"pattern": "canyon", "code": "Road"}],
  "line_styles": {"Hike": {"color": "F0FF0001", "width": "5"}},
  "aliases": {"229781": "Hawk Hill"},
  "display": {"distance_unit": "mi"}
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Strava.ClientID)
	assert.Equal(t, []bike.Rule{{Pattern: "canyon", Code: "Road"}}, cfg.Bikes)
	assert.Equal(t, "Hawk Hill", cfg.Aliases["229781"])
	assert.True(t, cfg.Display.Imperial())
	assert.Equal(t, 4, cfg.Fetch.Concurrency, "defaults applied")
	assert.Equal(t, 100, cfg.Fetch.PageSize)

	reg := style.NewRegistry()
	assert.Empty(t, reg.SetOverrides(cfg.LineStyles))
	assert.Equal(t, 5, reg.Lookup("Hike").Width)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
strava:
  client_id: "1"
  client_secret: s
bikes:
  - pattern: stumpjumper
    code: MTB
line_styles:
  Ride:
    color: C00000A1
    width: 3
aliases:
  229781: Hawk Hill
fetch:
  concurrency: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "MTB", cfg.Bikes[0].Code)
	assert.Equal(t, "Hawk Hill", cfg.Aliases["229781"])
	assert.Equal(t, 2, cfg.Fetch.Concurrency)
	assert.False(t, cfg.Display.Imperial())

	reg := style.NewRegistry()
	assert.Empty(t, reg.SetOverrides(cfg.LineStyles))
	assert.Equal(t, "C00000A1", reg.Lookup("Ride").Color)
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("strava: [unclosed"), 0600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	example := Example()
	require.NoError(t, SaveFile(path, &example))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, example.Strava, cfg.Strava)
	assert.Equal(t, example.Bikes, cfg.Bikes)
	assert.Equal(t, example.Aliases, cfg.Aliases)
}
