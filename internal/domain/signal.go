package domain

import "bytes"

// Signal classifies an inbound payload.
type Signal int

const (
	// SignalData is an ordinary control command.
	SignalData Signal = iota
	// SignalRecordToggle arms or disarms recording.
	SignalRecordToggle
	// SignalTransmit arms (or restarts) playback.
	SignalTransmit
)

// String returns a human-readable representation of the signal.
func (s Signal) String() string {
	switch s {
	case SignalData:
		return "data"
	case SignalRecordToggle:
		return "record-toggle"
	case SignalTransmit:
		return "transmit"
	default:
		return "unknown"
	}
}

// Triggers holds the payloads that act as control signals on the input channel.
type Triggers struct {
	Record   []byte
	Transmit []byte
}

// DefaultTriggers returns the default joypad buttons:
// "start" toggles recording and "X" starts transmission.
func DefaultTriggers() Triggers {
	return Triggers{
		Record:   []byte("start"),
		Transmit: []byte("X"),
	}
}

// Classify maps a payload to a Signal. Surrounding whitespace is ignored on
// both the payload and the triggers so line-based transports match the same
// way as framed ones.
func (t Triggers) Classify(payload []byte) Signal {
	p := bytes.TrimSpace(payload)
	record, transmit := bytes.TrimSpace(t.Record), bytes.TrimSpace(t.Transmit)
	switch {
	case len(record) > 0 && bytes.Equal(p, record):
		return SignalRecordToggle
	case len(transmit) > 0 && bytes.Equal(p, transmit):
		return SignalTransmit
	default:
		return SignalData
	}
}
