package ports

import (
	"context"

	"github.com/bft-labs/copycat/internal/domain"
)

// CommandLog stores the most recently completed recording.
//
// Implementations must never expose a partially written sequence: a Load
// running concurrently with CommitSession observes either the previous
// sequence or the new one.
type CommandLog interface {
	// BeginSession discards any in-progress buffer and opens a new one.
	// The persisted sequence is untouched until CommitSession.
	BeginSession(ctx context.Context, meta domain.SessionMeta) error

	// Append adds a command to the open session.
	// Returns domain.ErrNotRecording if no session is open.
	Append(ctx context.Context, cmd domain.Command) error

	// CommitSession atomically replaces the persisted sequence with the
	// buffer and closes the session. Returns the committed sequence.
	// Returns domain.ErrNotRecording if no session is open.
	CommitSession(ctx context.Context) (domain.Sequence, error)

	// Load returns the persisted sequence.
	// Returns domain.ErrNoRecordingAvailable if nothing was ever committed and
	// domain.ErrCorruptLog if the persisted data cannot be parsed.
	Load(ctx context.Context) (domain.Sequence, error)
}
