package copycat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bft-labs/copycat/internal/adapters/fs"
	"github.com/bft-labs/copycat/internal/adapters/sqlite"
	"github.com/bft-labs/copycat/internal/adapters/stdio"
	"github.com/bft-labs/copycat/internal/adapters/ws"
	"github.com/bft-labs/copycat/internal/app"
	"github.com/bft-labs/copycat/internal/clock"
	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
	"github.com/bft-labs/copycat/pkg/log"
)

// Copycat records control commands from an input channel and replays the
// latest recording onto an output channel. Use New() to create an instance,
// then Start() to begin processing.
type Copycat struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	emitter   *eventEmitterWrapper
	logger    ports.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	store   CommandLog
	closers []io.Closer
}

// New creates a new Copycat instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error wrapping ErrInvalidConfig if configuration is invalid.
func New(cfg Config, opts ...Option) (*Copycat, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil && cfg.LogPath == "" {
		return nil, fmt.Errorf("%w: log path is required", domain.ErrInvalidConfig)
	}
	needsTransport := o.source == nil || o.publisher == nil
	if needsTransport && cfg.Transport == TransportWebSocket && cfg.URL == "" {
		return nil, fmt.Errorf("%w: url is required for the websocket transport", domain.ErrInvalidConfig)
	}
	if o.clock == nil {
		o.clock = clock.NewRealClock()
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Copycat{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		emitter:   emitter,
		logger:    o.logger,
	}, nil
}

// Start opens the store and channels and begins processing in the
// background. Returns ErrAlreadyRunning if already running.
// The provided context bounds the lifetime of the instance; canceling it
// has the same effect as Stop.
func (c *Copycat) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	engine, err := c.open()
	if err != nil {
		c.release()
		_ = c.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		LogPath:   c.config.LogPath,
		StoreKind: c.config.Store,
		Store:     c.store,
		Logger:    c.logger,
	}
	for i, p := range c.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			c.shutdownPlugins(c.opts.plugins[:i])
			c.release()
			_ = c.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	c.lifecycle.Go(func() {
		if err := c.lifecycle.TransitionTo(app.StateRunning, "engine starting"); err != nil {
			c.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := engine.Run(runCtx)
		switch {
		case err == nil:
			c.settle("input exhausted")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			c.settle(err.Error())
		default:
			c.logger.Error("engine error", ports.Err(err))
			if c.lifecycle.TransitionTo(app.StateCrashed, err.Error()) == nil {
				c.mu.Lock()
				c.shutdownPlugins(c.opts.plugins)
				c.release()
				c.mu.Unlock()
			}
		}
	})

	return nil
}

// Stop gracefully shuts down the instance. An armed recording is committed
// and playback is stopped. Waits up to app.ShutdownTimeout.
// Returns ErrNotRunning if not running, ErrShutdownTimeout if forced.
func (c *Copycat) Stop() error {
	c.mu.Lock()
	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := c.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return domain.ErrNotRunning
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	c.mu.Lock()
	c.shutdownPlugins(c.opts.plugins)
	c.release()
	c.mu.Unlock()

	if err != nil {
		_ = c.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = c.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (c *Copycat) Status() State {
	return convertState(c.lifecycle.State())
}

// settle finishes a run that ended without Stop. If Stop is already in
// progress it owns the shutdown and settle does nothing.
func (c *Copycat) settle(reason string) {
	if err := c.lifecycle.TransitionTo(app.StateStopping, reason); err != nil {
		return
	}
	c.mu.Lock()
	c.shutdownPlugins(c.opts.plugins)
	c.release()
	c.mu.Unlock()
	_ = c.lifecycle.TransitionTo(app.StateStopped, reason)
}

// open builds the store, channels and engine for one run.
// Must be called with c.mu held.
func (c *Copycat) open() (*app.Engine, error) {
	store := c.opts.store
	if store == nil {
		switch c.config.Store {
		case StoreSQLite:
			db, err := sqlite.Open(c.config.LogPath, c.logger)
			if err != nil {
				return nil, fmt.Errorf("open store: %w", err)
			}
			c.closers = append(c.closers, db)
			store = db
		default:
			store = fs.NewCommandLogFile(c.config.LogPath, c.logger)
		}
	}
	c.store = store

	source, publisher := c.opts.source, c.opts.publisher
	if source == nil || publisher == nil {
		var src CommandSource
		var pub CommandPublisher
		switch c.config.Transport {
		case TransportWebSocket:
			ch := ws.NewChannel(c.config.URL, c.config.DialTimeout, c.logger)
			c.closers = append(c.closers, ch)
			src, pub = ch, ch
		default:
			ch := stdio.NewLineChannel(os.Stdin, os.Stdout)
			src, pub = ch, ch
		}
		if source == nil {
			source = src
		}
		if publisher == nil {
			publisher = pub
		}
	}

	c.logger.Info("copycat configured",
		ports.String("store", c.config.Store),
		ports.String("log_path", c.config.LogPath),
		ports.String("transport", c.config.Transport),
		ports.String("record_trigger", c.config.RecordTrigger),
		ports.String("transmit_trigger", c.config.TransmitTrigger),
	)

	return app.NewEngine(app.EngineConfig{
		Triggers:     c.config.triggers(),
		TickInterval: c.config.TickInterval,
		Once:         c.config.Once,
	}, store, source, publisher, c.opts.clock, c.logger, c.emitter), nil
}

// release closes the resources opened by open. Must be called with c.mu held.
func (c *Copycat) release() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			c.logger.Warn("close failed", ports.Err(err))
		}
	}
	c.closers = nil
	c.store = nil
}

// shutdownPlugins shuts plugins down in reverse order.
func (c *Copycat) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			c.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// validateModuleVersions checks that the public modules copycat builds on are
// at or above their minimum compatible versions.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log": {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion.
// Both are expected as "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
