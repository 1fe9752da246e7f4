package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

// Player replays the committed recording on the output channel, reproducing
// the recorded offsets relative to its own arm instant. It is not safe for
// concurrent use; the Engine drives it from a single goroutine.
type Player struct {
	store     ports.CommandLog
	publisher ports.CommandPublisher
	clock     ports.Clock
	logger    ports.Logger
	emitter   ArmEventEmitter

	state   domain.ArmState
	armedAt time.Time
	seq     domain.Sequence
	cursor  int
}

// NewPlayer creates an idle player reading from store and publishing to publisher.
func NewPlayer(store ports.CommandLog, publisher ports.CommandPublisher, clock ports.Clock, logger ports.Logger, emitter ArmEventEmitter) *Player {
	if emitter == nil {
		emitter = noopArmEmitter{}
	}
	return &Player{
		store:     store,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		emitter:   emitter,
		state:     domain.Idle,
	}
}

// State returns the current arm state.
func (p *Player) State() domain.ArmState {
	return p.state
}

// Cursor returns the index of the next command to publish.
func (p *Player) Cursor() int {
	return p.cursor
}

// Arm loads the recording and starts playback from its beginning. Arming
// while already armed restarts playback with a fresh time origin.
// If the recording cannot be loaded the player keeps its current state.
func (p *Player) Arm(ctx context.Context) error {
	seq, err := p.store.Load(ctx)
	if err != nil {
		p.emitter.OnError(domain.MachinePlayer, "arm", err)
		return fmt.Errorf("load recording: %w", err)
	}

	restart := p.state == domain.Armed
	p.seq = seq
	p.cursor = 0
	p.armedAt = p.clock.Now()

	reason := "transmit trigger"
	if restart {
		reason = "transmit trigger (restart)"
	}
	p.setState(domain.Armed, reason)
	p.logger.Info("toggled transmission",
		ports.Bool("transmitting", true),
		ports.Bool("restart", restart),
		ports.String("session", seq.Meta.ID),
		ports.Int("commands", seq.Len()),
		ports.Duration("duration", seq.Duration()),
	)
	return nil
}

// Stop abandons playback. It is a no-op when idle.
func (p *Player) Stop(reason string) {
	if p.state == domain.Idle {
		return
	}
	p.logger.Info("transmission stopped",
		ports.String("reason", reason),
		ports.Int("published", p.cursor),
		ports.Int("commands", p.seq.Len()),
	)
	p.finish(reason)
}

// Tick publishes every command whose offset has elapsed since the arm
// instant, oldest first, so a late tick catches up instead of skipping.
// A failed publish leaves the cursor on that command for the next tick.
// When the cursor reaches the end the player returns to idle.
func (p *Player) Tick(ctx context.Context) error {
	if p.state != domain.Armed {
		return nil
	}

	elapsed := p.clock.Since(p.armedAt)
	for p.cursor < p.seq.Len() {
		cmd, _ := p.seq.At(p.cursor)
		if cmd.Offset() > elapsed {
			break
		}
		if err := p.publisher.Publish(ctx, cmd.Payload()); err != nil {
			p.emitter.OnError(domain.MachinePlayer, "publish", err)
			return fmt.Errorf("publish command %d: %w", p.cursor, err)
		}
		p.logger.Debug("published command",
			ports.Int("index", p.cursor),
			ports.Duration("offset", cmd.Offset()),
			ports.Duration("elapsed", elapsed),
		)
		p.cursor++
	}

	if p.cursor >= p.seq.Len() {
		p.logger.Info("toggled transmission",
			ports.Bool("transmitting", false),
			ports.String("session", p.seq.Meta.ID),
			ports.Int("published", p.cursor),
		)
		p.finish("sequence complete")
	}
	return nil
}

func (p *Player) finish(reason string) {
	p.seq = domain.Sequence{}
	p.armedAt = time.Time{}
	p.setState(domain.Idle, reason)
}

func (p *Player) setState(next domain.ArmState, reason string) {
	prev := p.state
	p.state = next
	p.emitter.OnArmStateChange(domain.MachinePlayer, prev, next, reason)
}
