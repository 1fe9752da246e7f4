package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

// DefaultTickInterval is the playback polling cadence.
const DefaultTickInterval = 50 * time.Millisecond

// EngineConfig contains configuration for the engine loop.
type EngineConfig struct {
	Triggers     domain.Triggers
	TickInterval time.Duration

	// Once makes Run return after the input channel closes and playback is idle.
	Once bool
}

// Engine serializes inbound messages and playback ticks onto one loop and
// routes them to the Recorder and the Player.
type Engine struct {
	config   EngineConfig
	source   ports.CommandSource
	clock    ports.Clock
	logger   ports.Logger
	recorder *Recorder
	player   *Player
}

// NewEngine creates an engine recording into store from source and replaying
// from store onto publisher.
func NewEngine(
	config EngineConfig,
	store ports.CommandLog,
	source ports.CommandSource,
	publisher ports.CommandPublisher,
	clock ports.Clock,
	logger ports.Logger,
	emitter ArmEventEmitter,
) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if len(config.Triggers.Record) == 0 && len(config.Triggers.Transmit) == 0 {
		config.Triggers = domain.DefaultTriggers()
	}
	return &Engine{
		config:   config,
		source:   source,
		clock:    clock,
		logger:   logger,
		recorder: NewRecorder(store, clock, logger, emitter),
		player:   NewPlayer(store, publisher, clock, logger, emitter),
	}
}

// Recorder returns the engine's recorder.
func (e *Engine) Recorder() *Recorder { return e.recorder }

// Player returns the engine's player.
func (e *Engine) Player() *Player { return e.player }

// HandleMessage routes one inbound payload. Triggers toggle the machines and
// are never recorded; everything else is captured while recording.
// Failures are logged and leave the affected machine in its current state.
func (e *Engine) HandleMessage(ctx context.Context, payload []byte) {
	switch e.config.Triggers.Classify(payload) {
	case domain.SignalRecordToggle:
		if err := e.recorder.Toggle(ctx); err != nil {
			e.logger.Error("record toggle failed",
				ports.Err(err),
				ports.String("recorder", e.recorder.State().String()),
			)
		}
	case domain.SignalTransmit:
		if err := e.player.Arm(ctx); err != nil {
			level := e.logger.Error
			if errors.Is(err, domain.ErrNoRecordingAvailable) {
				level = e.logger.Warn
			}
			level("transmit trigger ignored",
				ports.Err(err),
				ports.String("player", e.player.State().String()),
			)
		}
	default:
		if err := e.recorder.Capture(ctx, payload); err != nil {
			e.logger.Warn("dropped command", ports.Err(err), ports.Payload("payload", payload))
		}
	}
}

// Tick advances playback.
func (e *Engine) Tick(ctx context.Context) {
	if err := e.player.Tick(ctx); err != nil {
		e.logger.Warn("playback tick failed, retrying next tick",
			ports.Err(err),
			ports.Int("cursor", e.player.Cursor()),
		)
	}
}

// Run executes the main loop until ctx is canceled, or with Once until the
// input channel is exhausted and playback has finished.
// On exit an armed recording is committed and playback is stopped.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	pumpCtx, cancelPump := context.WithCancel(ctx)
	defer cancelPump()

	inbound := make(chan []byte)
	go e.pump(pumpCtx, inbound)

	e.logger.Info("engine started",
		ports.Duration("tick", e.config.TickInterval),
		ports.Bool("once", e.config.Once),
	)

	inputClosed := false
	for {
		select {
		case <-ctx.Done():
			e.shutdown(ctx, "context canceled")
			return ctx.Err()

		case payload, ok := <-inbound:
			if !ok {
				inbound = nil
				inputClosed = true
				e.logger.Info("input channel closed")
			} else {
				e.HandleMessage(ctx, payload)
			}

		case <-ticker.C():
			e.Tick(ctx)
		}

		if inputClosed && e.config.Once && e.player.State() == domain.Idle {
			e.shutdown(ctx, "input exhausted")
			return nil
		}
	}
}

// pump moves payloads from the source onto out. It backs off while the
// source is unavailable and closes out once the source reports io.EOF.
// A source that ignores ctx may keep pump blocked after Run returns.
func (e *Engine) pump(ctx context.Context, out chan<- []byte) {
	bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	for {
		payload, err := e.source.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				close(out)
				return
			}
			e.logger.Warn("input channel unavailable",
				ports.Err(err),
				ports.Duration("retry_in", bo.Current()),
			)
			if bo.Wait(ctx) != nil {
				return
			}
			continue
		}
		bo.Reset()

		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

// shutdown commits an armed recording and stops playback.
func (e *Engine) shutdown(ctx context.Context, reason string) {
	if e.recorder.State() == domain.Armed {
		if err := e.recorder.Disarm(context.WithoutCancel(ctx)); err != nil {
			e.logger.Error("failed to commit recording on shutdown", ports.Err(err))
		}
	}
	e.player.Stop(reason)
	e.logger.Info("engine stopped", ports.String("reason", reason))
}
