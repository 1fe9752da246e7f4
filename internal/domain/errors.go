package domain

import "errors"

// Domain errors represent error conditions in the copycat domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrNotRecording is returned when a command is appended (or a session
	// committed) while no recording session is open.
	ErrNotRecording = errors.New("copycat: not recording")

	// ErrNoRecordingAvailable is returned by Load when nothing has ever been committed.
	ErrNoRecordingAvailable = errors.New("copycat: no recording available")

	// ErrCorruptLog is returned when the persisted recording cannot be parsed.
	ErrCorruptLog = errors.New("copycat: corrupt command log")

	// ErrChannelUnavailable is returned by transport adapters when the input or
	// output channel cannot be reached. It is never fatal.
	ErrChannelUnavailable = errors.New("copycat: channel unavailable")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("copycat: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("copycat: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("copycat: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("copycat: invalid configuration")
)
