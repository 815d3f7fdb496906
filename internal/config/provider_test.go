package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeSettings saves settings with the given home input.
func writeSettings(t *testing.T, path, homeInput string) {
	t.Helper()

	cfg := Default()
	cfg.HomeInput = homeInput

	require.NoError(t, Save(path, cfg))
}

// TestProvider_Reload bumps the revision only for real changes and keeps the
// previous snapshot when the file is invalid.
func TestProvider_Reload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "HDMI-1")

	cfg, err := Load(path)
	require.NoError(t, err)

	p := NewProvider(path, cfg)
	require.Zero(t, p.Revision())

	// Same contents, same revision.
	require.NoError(t, p.Reload(context.Background()))
	require.Zero(t, p.Revision())

	writeSettings(t, path, "DisplayPort-2")
	require.NoError(t, p.Reload(context.Background()))
	require.Equal(t, uint64(1), p.Revision())
	require.Equal(t, "DisplayPort-2", p.Snapshot().HomeInput)

	require.NoError(t, os.WriteFile(path, []byte("monitor_index: -4\n"), DefaultFilePermissions))
	require.Error(t, p.Reload(context.Background()))
	require.Equal(t, uint64(1), p.Revision())
	require.Equal(t, "DisplayPort-2", p.Snapshot().HomeInput)
}

// TestProvider_SnapshotIsCopy ensures callers cannot mutate the active settings.
func TestProvider_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	p := NewProvider("", nil)

	snapshot := p.Snapshot()
	snapshot.HomeInput = "VGA-1"

	require.Equal(t, DefaultHomeInput, p.Snapshot().HomeInput)
	require.Equal(t, DefaultConfigFilename, p.Path())
}

// TestProvider_Watch picks up a file change written after the watch started.
func TestProvider_Watch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "HDMI-1")

	p := NewProvider(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- p.Watch(ctx)
	}()

	// Keep rewriting until the watcher is registered and sees a change.
	changed := Default()
	changed.HomeInput = "DVI-2"

	require.Eventually(t, func() bool {
		if err := Save(path, changed); err != nil {
			return false
		}

		return p.Snapshot().HomeInput == "DVI-2"
	}, 5*time.Second, 50*time.Millisecond)

	require.Positive(t, p.Revision())

	cancel()
	require.NoError(t, <-done)
}
