package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/monitor-switcher/internal/domain/machine"
)

// TestValidate checks defaults and the rejected combinations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty settings get defaults.
	settings := new(Config)

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultHomeInput, settings.HomeInput)
	require.Equal(t, DefaultWorkInput, settings.WorkInput)
	require.Equal(t, DefaultPollInterval, settings.PollInterval)
	require.Equal(t, DefaultBackoffInterval, settings.BackoffInterval)
	require.Equal(t, DefaultControlAddress, settings.ControlAddress)
	require.Equal(t, DefaultControlTimeout, settings.ControlTimeout)

	// Control timeout is capped below the worker shutdown wait.
	settings = &Config{ControlTimeout: time.Minute}
	require.NoError(t, Validate(settings))
	require.Equal(t, MaxControlTimeout, settings.ControlTimeout)

	// Same input for both machines.
	settings = &Config{HomeInput: "HDMI-1", WorkInput: "HDMI-1"}
	require.ErrorIs(t, Validate(settings), errSameInput)

	// Input names differing only in case name the same input.
	settings = &Config{HomeInput: "hdmi-1", WorkInput: "HDMI-1"}
	require.ErrorIs(t, Validate(settings), errSameInput)

	// Negative monitor index.
	settings = &Config{MonitorIndex: -1}
	require.ErrorIs(t, Validate(settings), errNegativeIndex)

	// Poll interval bounds.
	settings = &Config{PollInterval: time.Millisecond}
	require.ErrorIs(t, Validate(settings), errPollInterval)

	settings = &Config{PollInterval: time.Hour}
	require.ErrorIs(t, Validate(settings), errPollInterval)

	// Bad control address.
	settings = &Config{ControlAddress: "bad:address"}
	require.Error(t, Validate(settings))

	// Backoff never shorter than the poll interval.
	settings = &Config{PollInterval: 10 * time.Second, BackoffInterval: time.Second}
	require.NoError(t, Validate(settings))
	require.Equal(t, 10*time.Second, settings.BackoffInterval)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := Default()
	settings.HomeInput = "DisplayPort-1"
	settings.MonitorIndex = 1
	settings.PollInterval = 3 * time.Second

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// Durations are stored in their readable form.
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "poll_interval: 3s")

	require.ErrorIs(t, Save(path, nil), errConfigIsNotSet)
}

// TestLoadOrCreate writes defaults for a missing file and leaves existing files alone.
func TestLoadOrCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Broken files are reported, not overwritten.
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: [\n"), DefaultFilePermissions))

	_, err = LoadOrCreate(path)
	require.Error(t, err)
}

// TestLoadOrDefault falls back to defaults without writing a file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg, err := LoadOrDefault(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestMapping maps both machines to their inputs.
func TestMapping(t *testing.T) {
	t.Parallel()

	cfg := &Config{HomeInput: "HDMI-1", WorkInput: "DVI-1"}

	require.Equal(t, machine.Mapping{machine.Home: "HDMI-1", machine.Work: "DVI-1"}, cfg.Mapping())
	require.Nil(t, (*Config)(nil).Clone())
}
