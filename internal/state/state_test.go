package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_CreatesDatabaseAndParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import", "state", "seen_transactions.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"seen_transactions", "ingest_runs"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestMarkSeen_FirstMarkWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fp := "aaaa1111bbbb2222cccc3333dddd4444aaaa1111bbbb2222cccc3333dddd4444"

	inserted, err := s.MarkSeen(ctx, fp, "chase")
	if err != nil {
		t.Fatalf("MarkSeen() failed: %v", err)
	}
	if !inserted {
		t.Error("first MarkSeen() should report inserted=true")
	}

	inserted, err = s.MarkSeen(ctx, fp, "chase")
	if err != nil {
		t.Fatalf("second MarkSeen() failed: %v", err)
	}
	if inserted {
		t.Error("second MarkSeen() should report inserted=false")
	}

	seen, err := s.IsSeen(ctx, fp)
	if err != nil {
		t.Fatalf("IsSeen() failed: %v", err)
	}
	if !seen {
		t.Error("fingerprint should be seen after marking")
	}
}

func TestIsSeen_UnknownFingerprint(t *testing.T) {
	s := openTestStore(t)

	seen, err := s.IsSeen(context.Background(), "never-marked")
	if err != nil {
		t.Fatalf("IsSeen() failed: %v", err)
	}
	if seen {
		t.Error("unknown fingerprint should not be seen")
	}
}

func TestMarkBatch_CountsOnlyNewRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.MarkSeen(ctx, "fp-already", "chase"); err != nil {
		t.Fatalf("MarkSeen() failed: %v", err)
	}

	inserted, err := s.MarkBatch(ctx, []string{"fp-already", "fp-new-1", "fp-new-2"}, "chase")
	if err != nil {
		t.Fatalf("MarkBatch() failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("MarkBatch() inserted = %d, want 2", inserted)
	}

	count, err := s.CountSeen(ctx)
	if err != nil {
		t.Fatalf("CountSeen() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountSeen() = %d, want 3", count)
	}
}

func TestMarkBatch_Empty(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.MarkBatch(context.Background(), nil, "chase")
	if err != nil {
		t.Fatalf("MarkBatch() failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("MarkBatch() inserted = %d, want 0", inserted)
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 2, 15, 10, 30, 0, 0, time.UTC)
	runs := []Run{
		{ID: "run-1", Source: "csv", Profile: "chase", StartedAt: started, Parsed: 10, Staged: 8, Duplicates: 2, Skipped: 1},
		{ID: "run-2", Source: "simplefin", StartedAt: started.Add(time.Hour), Parsed: 5, Staged: 5},
	}
	for _, r := range runs {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	got, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Runs() returned %d runs, want 2", len(got))
	}

	// Newest first.
	if got[0].ID != "run-2" || got[1].ID != "run-1" {
		t.Errorf("Runs() order = %s, %s; want run-2, run-1", got[0].ID, got[1].ID)
	}
	if got[1].Parsed != 10 || got[1].Staged != 8 || got[1].Duplicates != 2 || got[1].Skipped != 1 {
		t.Errorf("Runs() counts mismatch: %+v", got[1])
	}
	if !got[1].StartedAt.Equal(started) {
		t.Errorf("Runs() started_at = %v, want %v", got[1].StartedAt, started)
	}
}

func TestRuns_RespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		run := Run{ID: id, Source: "csv", StartedAt: time.Now()}
		if err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	got, err := s.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Runs(limit=2) returned %d runs", len(got))
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
