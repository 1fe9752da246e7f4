package domain

// ArmState is the state of the recorder or player machine.
type ArmState int

const (
	Idle ArmState = iota
	Armed
)

// String returns a human-readable representation of the state.
func (s ArmState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	default:
		return "Unknown"
	}
}

// Machine names one of the two arm state machines.
type Machine string

const (
	MachineRecorder Machine = "recorder"
	MachinePlayer   Machine = "player"
)
