package copycat

import "github.com/bft-labs/copycat/internal/domain"

// Errors returned by Copycat and its stores and channels. Check with errors.Is.
var (
	ErrNotRecording         = domain.ErrNotRecording
	ErrNoRecordingAvailable = domain.ErrNoRecordingAvailable
	ErrCorruptLog           = domain.ErrCorruptLog
	ErrChannelUnavailable   = domain.ErrChannelUnavailable
	ErrAlreadyRunning       = domain.ErrAlreadyRunning
	ErrNotRunning           = domain.ErrNotRunning
	ErrShutdownTimeout      = domain.ErrShutdownTimeout
	ErrInvalidConfig        = domain.ErrInvalidConfig
)
