package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/monitor-switcher/internal/logger"
)

// Provider serves the active settings of a running process.
// Snapshots are immutable; a reload swaps the pointer and bumps the revision.
type Provider struct {
	// current is the active settings snapshot.
	current *Config
	// path is the settings file reloaded on change.
	path string
	// revision increases on every successful reload.
	revision atomic.Uint64
	// mu protects current.
	mu sync.RWMutex
}

// NewProvider creates a provider for the settings file with an initial snapshot.
func NewProvider(path string, cfg *Config) *Provider {
	if path == "" {
		path = DefaultConfigFilename
	}

	if cfg == nil {
		cfg = Default()
	}

	return &Provider{
		current: cfg.Clone(),
		path:    filepath.Clean(path),
	}
}

// Snapshot returns a copy of the active settings.
func (p *Provider) Snapshot() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current.Clone()
}

// Revision returns a counter that changes whenever the settings change.
func (p *Provider) Revision() uint64 {
	return p.revision.Load()
}

// Path returns the watched settings file.
func (p *Provider) Path() string {
	return p.path
}

// Reload reads the settings file again. An invalid file keeps the previous
// snapshot and returns the error.
func (p *Provider) Reload(ctx context.Context) error {
	cfg, err := Load(p.path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	unchanged := *p.current == *cfg
	if !unchanged {
		p.current = cfg
	}
	p.mu.Unlock()

	if unchanged {
		return nil
	}

	revision := p.revision.Add(1)

	logger.InfoKV(ctx, "Settings reloaded",
		"path", p.path,
		"revision", revision,
		"home_input", cfg.HomeInput,
		"work_input", cfg.WorkInput,
		"monitor_index", cfg.MonitorIndex)

	return nil
}

// Watch reloads the settings whenever the file is written, created or renamed
// into place. It blocks until ctx is canceled.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	// Editors often replace the file, so the directory is watched instead.
	if err = watcher.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}

	name := filepath.Base(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != name || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if err := p.Reload(ctx); err != nil {
				logger.WarnKV(ctx, "Settings reload failed, keeping previous settings", "path", p.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Settings watcher error", "error", err)
		}
	}
}
