// Package fs implements the command log on the local file system.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

// CommandLogFile implements ports.CommandLog using a single JSON-lines file.
//
// The open session lives in memory and is written once, on commit, through a
// temp file that is renamed over the log. The last committed sequence is
// kept as an immutable snapshot and served to Load until Invalidate is called.
type CommandLogFile struct {
	path   string
	logger ports.Logger

	mu       sync.RWMutex
	pending  *domain.SequenceBuilder
	snapshot *domain.Sequence
}

// NewCommandLogFile creates a store persisting to path.
func NewCommandLogFile(path string, logger ports.Logger) *CommandLogFile {
	return &CommandLogFile{
		path:   path,
		logger: logger,
	}
}

// Path returns the full path to the log file.
func (s *CommandLogFile) Path() string {
	return s.path
}

// BeginSession opens a new in-memory buffer, discarding any previous one.
func (s *CommandLogFile) BeginSession(ctx context.Context, meta domain.SessionMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.logger.Warn("discarding uncommitted session",
			ports.String("session", s.pending.Meta().ID),
			ports.Int("commands", s.pending.Len()),
		)
	}
	s.pending = domain.NewSequenceBuilder(meta)
	return nil
}

// Append buffers a command in the open session.
func (s *CommandLogFile) Append(ctx context.Context, cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.ErrNotRecording
	}
	s.pending.Append(cmd)
	return nil
}

// CommitSession writes the buffer over the log file atomically.
// The session stays open if the write fails so the commit can be retried.
func (s *CommandLogFile) CommitSession(ctx context.Context) (domain.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sequence{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.Sequence{}, domain.ErrNotRecording
	}
	seq := s.pending.Build()
	if err := s.writeAtomic(seq); err != nil {
		return domain.Sequence{}, err
	}

	s.pending = nil
	s.snapshot = &seq
	return seq, nil
}

// Load returns the committed sequence, reading the file if no snapshot is cached.
func (s *CommandLogFile) Load(ctx context.Context) (domain.Sequence, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sequence{}, err
	}

	s.mu.RLock()
	if s.snapshot != nil {
		seq := *s.snapshot
		s.mu.RUnlock()
		return seq, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return *s.snapshot, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Sequence{}, domain.ErrNoRecordingAvailable
		}
		return domain.Sequence{}, fmt.Errorf("open command log: %w", err)
	}
	defer f.Close()

	seq, err := decodeSequence(f)
	if err != nil {
		return domain.Sequence{}, err
	}
	s.snapshot = &seq
	return seq, nil
}

// Invalidate drops the cached snapshot so the next Load re-reads the file.
// Used when the file is replaced by something other than this store.
func (s *CommandLogFile) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}

// writeAtomic must be called with s.mu held.
func (s *CommandLogFile) writeAtomic(seq domain.Sequence) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := encodeSequence(tmp, seq); err != nil {
		cleanup()
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp log: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace command log: %w", err)
	}
	return nil
}
