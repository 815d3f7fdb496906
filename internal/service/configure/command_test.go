package configure

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/monitor-switcher/internal/config"
	"github.com/oshokin/monitor-switcher/internal/ddc"
)

// TestRun_CreatesAndUpdates writes defaults on first use and applies overrides.
func TestRun_CreatesAndUpdates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	index := 1
	notifications := false

	cfg, err := Run(context.Background(), &Options{
		ConfigPath:    path,
		WorkInput:     "displayport-2",
		MonitorIndex:  &index,
		PollInterval:  3 * time.Second,
		Notifications: &notifications,
	})
	require.NoError(t, err)
	require.Equal(t, config.DefaultHomeInput, cfg.HomeInput)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "displayport-2", loaded.WorkInput)
	require.Equal(t, 1, loaded.MonitorIndex)
	require.Equal(t, 3*time.Second, loaded.PollInterval)
	require.True(t, loaded.DisableNotifications)
}

// TestRun_Rejects covers invalid edits.
func TestRun_Rejects(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	_, err := Run(context.Background(), &Options{ConfigPath: path})
	require.ErrorIs(t, err, errNothingToChange)

	_, err = Run(context.Background(), &Options{ConfigPath: path, HomeInput: "S-Video"})
	require.ErrorIs(t, err, ddc.ErrUnknownInput)

	_, err = Run(context.Background(), &Options{ConfigPath: path, HomeInput: config.DefaultWorkInput})
	require.Error(t, err)

	_, err = Run(context.Background(), &Options{ConfigPath: path, PollInterval: time.Millisecond})
	require.Error(t, err)
}
