// Package sqlite provides a SQLite-backed command log.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/internal/ports"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS recording (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	session_id    TEXT    NOT NULL,
	armed_at      INTEGER NOT NULL,
	command_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS commands (
	position  INTEGER PRIMARY KEY,
	offset_ns INTEGER NOT NULL,
	payload   BLOB
	)`,
}

// CommandLogDB implements ports.CommandLog in a SQLite database.
// The open session is buffered in memory; CommitSession replaces both tables
// inside a single transaction so readers never see a partial recording.
type CommandLogDB struct {
	sqlDB  *sql.DB
	logger ports.Logger

	mu      sync.Mutex
	pending *domain.SequenceBuilder
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, logger ports.Logger) (*CommandLogDB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &CommandLogDB{sqlDB: sqlDB, logger: logger}, nil
}

// Close closes the SQLite handle.
func (s *CommandLogDB) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// BeginSession opens a new in-memory buffer, discarding any previous one.
func (s *CommandLogDB) BeginSession(ctx context.Context, meta domain.SessionMeta) error {
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
func (s *CommandLogDB) Append(ctx context.Context, cmd domain.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.ErrNotRecording
	}
	s.pending.Append(cmd)
	return nil
}

// CommitSession replaces the stored recording in one transaction.
func (s *CommandLogDB) CommitSession(ctx context.Context) (domain.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.Sequence{}, domain.ErrNotRecording
	}
	seq := s.pending.Build()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Sequence{}, fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM commands`); err != nil {
		return domain.Sequence{}, fmt.Errorf("clear commands: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO recording (id, session_id, armed_at, command_count) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id,
		   armed_at = excluded.armed_at,
		   command_count = excluded.command_count`,
		seq.Meta.ID, seq.Meta.ArmedAt.UTC().UnixNano(), seq.Len(),
	); err != nil {
		return domain.Sequence{}, fmt.Errorf("write recording: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO commands (position, offset_ns, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return domain.Sequence{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i := 0; i < seq.Len(); i++ {
		cmd, _ := seq.At(i)
		if _, err := stmt.ExecContext(ctx, i, int64(cmd.Offset()), cmd.Payload()); err != nil {
			return domain.Sequence{}, fmt.Errorf("write command %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Sequence{}, fmt.Errorf("commit recording: %w", err)
	}
	s.pending = nil
	return seq, nil
}

// Load reads the stored recording inside one read transaction.
func (s *CommandLogDB) Load(ctx context.Context) (domain.Sequence, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Sequence{}, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		meta    domain.SessionMeta
		armedAt int64
		count   int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT session_id, armed_at, command_count FROM recording WHERE id = 1`,
	).Scan(&meta.ID, &armedAt, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sequence{}, domain.ErrNoRecordingAvailable
	}
	if err != nil {
		return domain.Sequence{}, fmt.Errorf("read recording: %w", err)
	}
	if count < 0 {
		return domain.Sequence{}, fmt.Errorf("%w: negative command count", domain.ErrCorruptLog)
	}
	meta.ArmedAt = time.Unix(0, armedAt).UTC()

	rows, err := tx.QueryContext(ctx, `SELECT position, offset_ns, payload FROM commands ORDER BY position`)
	if err != nil {
		return domain.Sequence{}, fmt.Errorf("read commands: %w", err)
	}
	defer rows.Close()

	var commands []domain.Command
	for rows.Next() {
		var (
			position int
			offsetNS int64
			payload  []byte
		)
		if err := rows.Scan(&position, &offsetNS, &payload); err != nil {
			return domain.Sequence{}, fmt.Errorf("%w: scan command: %v", domain.ErrCorruptLog, err)
		}
		if position != len(commands) {
			return domain.Sequence{}, fmt.Errorf("%w: missing command %d", domain.ErrCorruptLog, len(commands))
		}
		commands = append(commands, domain.NewCommand(payload, time.Duration(offsetNS)))
	}
	if err := rows.Err(); err != nil {
		return domain.Sequence{}, fmt.Errorf("read commands: %w", err)
	}
	if len(commands) != count {
		return domain.Sequence{}, fmt.Errorf("%w: recording declares %d commands, found %d",
			domain.ErrCorruptLog, count, len(commands))
	}
	return domain.NewSequence(meta, commands)
}
