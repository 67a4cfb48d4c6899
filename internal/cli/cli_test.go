package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikelog/internal/bike"
	"bikelog/internal/config"
	"bikelog/internal/kml"
	"bikelog/internal/service"
	"bikelog/internal/strava"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"kml", "log", "athlete", "auth"} {
		cmd, _, err := RootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestFetchFlagsOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	s := &session{cfg: &cfg}

	f := &fetchFlags{dates: "20240301-20240305,2023", types: []string{"Ride"}, commute: "exclude"}
	opts, err := f.options(s)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ride"}, opts.Types)
	assert.Equal(t, service.CommuteExclude, opts.Commute)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, 100, opts.PageSize)
	require.Len(t, opts.Dates, 2)
	assert.Equal(t, 2023, opts.Dates[0].From.Year())
	assert.True(t, opts.Dates.Contains(time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local)))

	_, err = (&fetchFlags{commute: "sometimes"}).options(s)
	assert.ErrorContains(t, err, "--commute")

	_, err = (&fetchFlags{dates: "2024-13"}).options(s)
	assert.Error(t, err)

	opts, err = (&fetchFlags{}).options(s)
	require.NoError(t, err)
	assert.Empty(t, opts.Dates)
	assert.Equal(t, service.CommuteAny, opts.Commute)
}

func TestSegmentFolders(t *testing.T) {
	tests := []struct {
		mode    string
		want    kml.SegmentFolders
		wantErr bool
	}{
		{"", kml.FlatFolders, false},
		{"flat", kml.FlatFolders, false},
		{"regions", kml.RegionFolders, false},
		{"countries", kml.FlatFolders, true},
	}
	for _, tt := range tests {
		got, err := segmentFolders(tt.mode)
		if tt.wantErr {
			assert.Error(t, err, tt.mode)
			continue
		}
		require.NoError(t, err, tt.mode)
		assert.Equal(t, tt.want, got, tt.mode)
	}
}

func TestBikeRows(t *testing.T) {
	classifier, err := bike.NewClassifier([]bike.Rule{{Pattern: "canyon", Code: "Road"}})
	require.NoError(t, err)

	rows := bikeRows(classifier, []strava.Gear{
		{ID: "b1", Name: "Canyon Ultimate", Distance: 1000, Primary: true},
		{ID: "b2", Name: "Mystery Machine"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "Road", rows[0].Code)
	assert.True(t, rows[0].Primary)
	assert.Equal(t, "Mystery Machine", rows[1].Name)
}

func TestAthleteName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", athleteName(&strava.Athlete{Firstname: "Ada", Lastname: "Lovelace"}))
	assert.Equal(t, "ada", athleteName(&strava.Athlete{Username: "ada"}))
}

func TestOutputSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.kml")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))

	assert.Equal(t, int64(5), outputSize(path))
	assert.Equal(t, int64(0), outputSize(service.StdoutPath))
	assert.Equal(t, int64(0), outputSize(filepath.Join(t.TempDir(), "missing")))
}

func TestSummaryOut(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	assert.Same(t, &stderr, summaryOut(cmd, service.StdoutPath))
	assert.Same(t, &stdout, summaryOut(cmd, "log.xfdf"))
}

func TestLoadConfigCreatesExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	configPath = path
	t.Cleanup(func() { configPath = "" })

	var stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetErr(&stderr)

	_, err := loadConfig(cmd)
	assert.ErrorIs(t, err, errConfigNeeded)
	assert.Contains(t, stderr.String(), path)
	assert.FileExists(t, path)

	// The example still carries placeholder credentials.
	stderr.Reset()
	_, err = loadConfig(cmd)
	assert.ErrorIs(t, err, errConfigNeeded)
	assert.Contains(t, stderr.String(), "Config validation failed")

	cfg := config.Example()
	cfg.Strava = config.StravaConfig{ClientID: "1", ClientSecret: "s"}
	require.NoError(t, config.SaveFile(path, &cfg))

	loaded, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "1", loaded.Strava.ClientID)
}
