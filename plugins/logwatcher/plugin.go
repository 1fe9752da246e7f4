// Package logwatcher reloads the recording when the command log file is
// replaced from outside, e.g. when an operator copies in a recorded path.
package logwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/copycat/pkg/copycat"
	"github.com/bft-labs/copycat/pkg/log"
)

// Invalidator is implemented by stores that cache the loaded recording.
type Invalidator interface {
	Invalidate()
}

// Plugin watches the directory of the command log and drops the store's
// cached recording whenever the log file changes.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	logPath  string
	store    Invalidator
	logger   copycat.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the log watcher plugin.
type Config struct {
	// DebounceDelay is the quiet period after the last change before the
	// cache is dropped.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a new log watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "logwatcher"
}

// Initialize starts watching the log file's directory. It is a no-op for
// stores that do not cache, such as SQLite.
func (p *Plugin) Initialize(ctx context.Context, cfg copycat.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	store, ok := cfg.Store.(Invalidator)
	if !ok || cfg.LogPath == "" {
		logger.Warn("log watcher disabled: store has no file cache",
			log.String("store", cfg.StoreKind))
		return nil
	}

	dir := filepath.Dir(cfg.LogPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	p.mu.Lock()
	p.logPath = cfg.LogPath
	p.store = store
	p.logger = logger
	p.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	logger.Info("log watcher started", log.String("path", cfg.LogPath))
	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.logPath)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			p.debounceInvalidate(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("log watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceInvalidate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.store.Invalidate()
		p.logger.Info("command log changed, recording will be reloaded",
			log.String("path", p.logPath))
	})
}
