package domain

import (
	"fmt"
	"time"
)

// SessionMeta identifies one recording session.
type SessionMeta struct {
	// ID is a unique identifier assigned when the session is armed
	ID string

	// ArmedAt is the wall-clock instant the session was armed
	ArmedAt time.Time
}

// Sequence is the ordered list of commands captured during one session.
// Insertion order is temporal order: offsets never decrease.
type Sequence struct {
	Meta     SessionMeta
	commands []Command
}

// NewSequence builds a Sequence from already ordered commands.
// Returns ErrCorruptLog if the offsets are not monotonically non-decreasing.
func NewSequence(meta SessionMeta, commands []Command) (Sequence, error) {
	for i := 1; i < len(commands); i++ {
		if commands[i].offset < commands[i-1].offset {
			return Sequence{}, fmt.Errorf("%w: command %d at %s precedes command %d at %s",
				ErrCorruptLog, i, commands[i].offset, i-1, commands[i-1].offset)
		}
	}
	out := make([]Command, len(commands))
	copy(out, commands)
	return Sequence{Meta: meta, commands: out}, nil
}

// Len returns the number of commands in the sequence.
func (s Sequence) Len() int {
	return len(s.commands)
}

// Empty returns true if the sequence has no commands.
func (s Sequence) Empty() bool {
	return len(s.commands) == 0
}

// At returns the command at index i and whether i is in bounds.
func (s Sequence) At(i int) (Command, bool) {
	if i < 0 || i >= len(s.commands) {
		return Command{}, false
	}
	return s.commands[i], true
}

// Commands returns a copy of the commands in order.
func (s Sequence) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Duration returns the offset of the last command, or zero if empty.
func (s Sequence) Duration() time.Duration {
	if len(s.commands) == 0 {
		return 0
	}
	return s.commands[len(s.commands)-1].offset
}

// SequenceBuilder accumulates the commands of an open session.
// It is owned by the store between BeginSession and CommitSession.
type SequenceBuilder struct {
	meta     SessionMeta
	commands []Command
}

// NewSequenceBuilder creates an empty builder for the given session.
func NewSequenceBuilder(meta SessionMeta) *SequenceBuilder {
	return &SequenceBuilder{
		meta:     meta,
		commands: make([]Command, 0, 64),
	}
}

// Meta returns the session the builder belongs to.
func (b *SequenceBuilder) Meta() SessionMeta {
	return b.meta
}

// Append adds a command to the end of the buffer.
// An offset earlier than the previous command is clamped to it so the
// sequence stays ordered by arrival.
func (b *SequenceBuilder) Append(cmd Command) {
	if n := len(b.commands); n > 0 && cmd.offset < b.commands[n-1].offset {
		cmd.offset = b.commands[n-1].offset
	}
	b.commands = append(b.commands, cmd)
}

// Len returns the number of buffered commands.
func (b *SequenceBuilder) Len() int {
	return len(b.commands)
}

// Build returns an immutable Sequence holding the buffered commands.
func (b *SequenceBuilder) Build() Sequence {
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return Sequence{Meta: b.meta, commands: out}
}
