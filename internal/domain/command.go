package domain

import "time"

// Command is a single captured control payload.
// Payload bytes are copied on construction and on read, so a Command is
// immutable once created.
type Command struct {
	payload []byte
	offset  time.Duration
}

// NewCommand creates a Command from payload recorded offset after the arm instant.
func NewCommand(payload []byte, offset time.Duration) Command {
	return Command{payload: clone(payload), offset: offset}
}

// Payload returns a copy of the command payload.
func (c Command) Payload() []byte {
	return clone(c.payload)
}

// Offset returns the relative timestamp of the command.
func (c Command) Offset() time.Duration {
	return c.offset
}

// Size returns the payload length in bytes.
func (c Command) Size() int {
	return len(c.payload)
}

// Equal reports whether two commands carry identical payloads and offsets.
func (c Command) Equal(other Command) bool {
	return c.offset == other.offset && string(c.payload) == string(other.payload)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
