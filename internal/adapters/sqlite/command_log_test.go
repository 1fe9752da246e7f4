package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/copycat/internal/domain"
	"github.com/bft-labs/copycat/pkg/log"
)

func openTestDB(t *testing.T) (*CommandLogDB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "copycat.db")
	db, err := Open(path, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open("  ", log.NewNoopLogger()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCommandLogDB_LoadBeforeCommit(t *testing.T) {
	db, _ := openTestDB(t)

	if _, err := db.Load(context.Background()); !errors.Is(err, domain.ErrNoRecordingAvailable) {
		t.Fatalf("Load() error = %v, want ErrNoRecordingAvailable", err)
	}
}

func TestCommandLogDB_AppendWithoutSession(t *testing.T) {
	db, _ := openTestDB(t)

	err := db.Append(context.Background(), domain.NewCommand([]byte("up"), 0))
	if !errors.Is(err, domain.ErrNotRecording) {
		t.Fatalf("Append() error = %v, want ErrNotRecording", err)
	}
}

func TestCommandLogDB_RoundTripAcrossReopen(t *testing.T) {
	db, path := openTestDB(t)
	ctx := context.Background()
	armedAt := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	if err := db.BeginSession(ctx, domain.SessionMeta{ID: "s1", ArmedAt: armedAt}); err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	want := []domain.Command{
		domain.NewCommand([]byte("up"), 0),
		domain.NewCommand([]byte{0x01, 0x02}, 100*time.Millisecond+7),
		domain.NewCommand([]byte(""), 250*time.Millisecond),
	}
	for _, c := range want {
		if err := db.Append(ctx, c); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if _, err := db.CommitSession(ctx); err != nil {
		t.Fatalf("CommitSession: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta.ID != "s1" || !got.Meta.ArmedAt.Equal(armedAt) {
		t.Errorf("meta = %+v", got.Meta)
	}
	if got.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		c, _ := got.At(i)
		if !c.Equal(w) {
			t.Errorf("command %d = %q@%v, want %q@%v", i, c.Payload(), c.Offset(), w.Payload(), w.Offset())
		}
	}
}

func TestCommandLogDB_CommitOverwrites(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"first", "second"} {
		if err := db.BeginSession(ctx, domain.SessionMeta{ID: id}); err != nil {
			t.Fatalf("BeginSession: %v", err)
		}
		_ = db.Append(ctx, domain.NewCommand([]byte(id), 0))
		if id == "first" {
			_ = db.Append(ctx, domain.NewCommand([]byte("extra"), time.Millisecond))
		}
		if _, err := db.CommitSession(ctx); err != nil {
			t.Fatalf("CommitSession: %v", err)
		}
	}

	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta.ID != "second" || got.Len() != 1 {
		t.Errorf("got %q with %d commands, want second with 1", got.Meta.ID, got.Len())
	}
}

func TestCommandLogDB_CountMismatchIsCorrupt(t *testing.T) {
	tests := []struct {
		name  string
		count int64
	}{
		{"more than stored", 5},
		{"fewer than stored", 0},
		{"negative", -1},
		{"absurd", math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := openTestDB(t)
			ctx := context.Background()

			if err := db.BeginSession(ctx, domain.SessionMeta{ID: "s"}); err != nil {
				t.Fatalf("BeginSession: %v", err)
			}
			_ = db.Append(ctx, domain.NewCommand([]byte("a"), 0))
			if _, err := db.CommitSession(ctx); err != nil {
				t.Fatalf("CommitSession: %v", err)
			}
			if _, err := db.sqlDB.Exec(`UPDATE recording SET command_count = ?`, tt.count); err != nil {
				t.Fatalf("tamper: %v", err)
			}

			if _, err := db.Load(ctx); !errors.Is(err, domain.ErrCorruptLog) {
				t.Fatalf("Load() error = %v, want ErrCorruptLog", err)
			}
		})
	}
}

func TestCommandLogDB_LoadNeverSeesPartialCommit(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	const perSession = 100
	commit := func(id string) {
		if err := db.BeginSession(ctx, domain.SessionMeta{ID: id}); err != nil {
			t.Errorf("BeginSession: %v", err)
			return
		}
		for i := 0; i < perSession; i++ {
			_ = db.Append(ctx, domain.NewCommand([]byte(fmt.Sprintf("%s-%d", id, i)), time.Duration(i)))
		}
		if _, err := db.CommitSession(ctx); err != nil {
			t.Errorf("CommitSession: %v", err)
		}
	}
	commit("seed")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				seq, err := db.Load(ctx)
				if err != nil {
					t.Errorf("Load: %v", err)
					return
				}
				if seq.Len() != perSession {
					t.Errorf("observed %d commands, want %d", seq.Len(), perSession)
					return
				}
				c, _ := seq.At(0)
				if want := seq.Meta.ID + "-0"; string(c.Payload()) != want {
					t.Errorf("session %q starts with %q, want %q", seq.Meta.ID, c.Payload(), want)
					return
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		commit(fmt.Sprintf("s%d", i))
	}
	close(stop)
	wg.Wait()
}
