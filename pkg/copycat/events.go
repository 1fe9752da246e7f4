package copycat

import (
	"github.com/bft-labs/copycat/internal/app"
	"github.com/bft-labs/copycat/internal/domain"
)

// State is the lifecycle state of a Copycat instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// ArmState is the state of the recorder or the player.
type ArmState = domain.ArmState

// Arm states.
const (
	Idle  = domain.Idle
	Armed = domain.Armed
)

// Machine names the recorder or the player.
type Machine = domain.Machine

// Machines.
const (
	MachineRecorder = domain.MachineRecorder
	MachinePlayer   = domain.MachinePlayer
)

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ArmStateChangeEvent reports a recorder or player transition. A player
// restart is reported as Armed -> Armed.
type ArmStateChangeEvent struct {
	Machine  Machine
	Previous ArmState
	Current  ArmState
	Reason   string
}

// ErrorEvent reports a failed transition or tick. The machine keeps its
// state and the operation is retried on the next trigger or tick.
type ErrorEvent struct {
	Machine Machine
	Op      string
	Error   error
}

// EventHandler receives Copycat events. Methods are called synchronously
// from the engine goroutine and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnArmStateChange(event ArmStateChangeEvent)
	OnError(event ErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnArmStateChange(ArmStateChangeEvent) {}
func (BaseEventHandler) OnError(ErrorEvent)                   {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnArmStateChange(machine domain.Machine, previous, current domain.ArmState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnArmStateChange(ArmStateChangeEvent{
		Machine:  machine,
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnError(machine domain.Machine, op string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnError(ErrorEvent{Machine: machine, Op: op, Error: err})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
