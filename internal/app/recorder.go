package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

// Recorder captures inbound commands while armed and commits them to the
// command log when disarmed. It is not safe for concurrent use; the Engine
// drives it from a single goroutine.
type Recorder struct {
	store   ports.CommandLog
	clock   ports.Clock
	logger  ports.Logger
	emitter ArmEventEmitter
	newID   func() string

	state     domain.ArmState
	sessionID string
	armedAt   time.Time
	captured  int
}

// NewRecorder creates an idle recorder writing to store.
func NewRecorder(store ports.CommandLog, clock ports.Clock, logger ports.Logger, emitter ArmEventEmitter) *Recorder {
	if emitter == nil {
		emitter = noopArmEmitter{}
	}
	return &Recorder{
		store:   store,
		clock:   clock,
		logger:  logger,
		emitter: emitter,
		newID:   uuid.NewString,
		state:   domain.Idle,
	}
}

// State returns the current arm state.
func (r *Recorder) State() domain.ArmState {
	return r.state
}

// SessionID returns the ID of the armed session, or "" when idle.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Toggle arms the recorder when idle and disarms it when armed.
func (r *Recorder) Toggle(ctx context.Context) error {
	if r.state == domain.Armed {
		return r.Disarm(ctx)
	}
	return r.Arm(ctx)
}

// Arm opens a new session. It is a no-op when already armed.
// If the store refuses the session the recorder stays idle.
func (r *Recorder) Arm(ctx context.Context) error {
	if r.state == domain.Armed {
		return nil
	}

	meta := domain.SessionMeta{ID: r.newID(), ArmedAt: r.clock.Now()}
	if err := r.store.BeginSession(ctx, meta); err != nil {
		r.emitter.OnError(domain.MachineRecorder, "arm", err)
		return fmt.Errorf("begin session: %w", err)
	}

	r.sessionID = meta.ID
	r.armedAt = meta.ArmedAt
	r.captured = 0
	r.setState(domain.Armed, "record trigger")
	r.logger.Info("toggled recording",
		ports.Bool("recording", true),
		ports.String("session", r.sessionID),
	)
	return nil
}

// Disarm commits the session. It is a no-op when idle.
// If the commit fails the recorder stays armed so the next trigger retries it.
func (r *Recorder) Disarm(ctx context.Context) error {
	if r.state == domain.Idle {
		return nil
	}

	seq, err := r.store.CommitSession(ctx)
	if err != nil {
		r.emitter.OnError(domain.MachineRecorder, "disarm", err)
		return fmt.Errorf("commit session: %w", err)
	}

	r.logger.Info("toggled recording",
		ports.Bool("recording", false),
		ports.String("session", r.sessionID),
		ports.Int("commands", seq.Len()),
		ports.Duration("duration", seq.Duration()),
	)
	r.sessionID = ""
	r.armedAt = time.Time{}
	r.setState(domain.Idle, "record trigger")
	return nil
}

// Capture stores payload with its offset from the arm instant. Payloads
// arriving while idle are ignored. A failed append drops only this payload;
// the session stays armed.
func (r *Recorder) Capture(ctx context.Context, payload []byte) error {
	if r.state != domain.Armed {
		return nil
	}

	offset := r.clock.Since(r.armedAt)
	if offset < 0 {
		offset = 0
	}
	if err := r.store.Append(ctx, domain.NewCommand(payload, offset)); err != nil {
		r.emitter.OnError(domain.MachineRecorder, "append", err)
		return fmt.Errorf("append command: %w", err)
	}
	r.captured++
	r.logger.Debug("captured command",
		ports.Payload("payload", payload),
		ports.Duration("offset", offset),
		ports.Int("index", r.captured-1),
	)
	return nil
}

func (r *Recorder) setState(next domain.ArmState, reason string) {
	prev := r.state
	r.state = next
	r.emitter.OnArmStateChange(domain.MachineRecorder, prev, next, reason)
}
