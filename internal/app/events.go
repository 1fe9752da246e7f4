package app

import "github.com/bft-labs/copycat/internal/domain"

// EventEmitter is called when the engine lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// ArmEventEmitter is called when the recorder or the player changes state,
// and when a transition or tick fails.
type ArmEventEmitter interface {
	OnArmStateChange(machine domain.Machine, previous, current domain.ArmState, reason string)
	OnError(machine domain.Machine, op string, err error)
}

type noopArmEmitter struct{}

func (noopArmEmitter) OnArmStateChange(domain.Machine, domain.ArmState, domain.ArmState, string) {}
func (noopArmEmitter) OnError(domain.Machine, string, error)                                   {}
