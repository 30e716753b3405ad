package eventstore

import (
	"testing"
	"time"
)

func TestAuditStoreAppendAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	if err := store.Append(ctx, TypeDaemonStarted, map[string]string{"pid": "1234"}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if err := store.Append(ctx, TypeFileWritten, map[string]string{"path": "notes/todo.md"}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get recent events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// Newest first.
	if events[0].Type != TypeFileWritten {
		t.Errorf("expected first event %s, got %s", TypeFileWritten, events[0].Type)
	}
	if events[0].Details["path"] != "notes/todo.md" {
		t.Errorf("expected path detail, got %v", events[0].Details)
	}
	if events[1].Type != TypeDaemonStarted {
		t.Errorf("expected second event %s, got %s", TypeDaemonStarted, events[1].Type)
	}
	if events[1].Details["pid"] != "1234" {
		t.Errorf("expected pid detail, got %v", events[1].Details)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestAuditStoreRecentLimit(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for range 5 {
		if err := store.Append(ctx, TypeConfigUpdated, nil); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	events, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("failed to get recent events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
}

func TestAuditStoreRange(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	if err := store.Append(ctx, TypeDaemonStarted, nil); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	now := time.Now()
	events, err := store.Range(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in range, got %d", len(events))
	}

	events, err = store.Range(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events outside range, got %d", len(events))
	}
}

func TestAuditStoreSummary(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for range 3 {
		if err := store.Append(ctx, TypeFileWritten, nil); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}
	if err := store.Append(ctx, TypeDaemonStopped, nil); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	counts, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("failed to get summary: %v", err)
	}
	if counts[TypeFileWritten] != 3 {
		t.Errorf("expected 3 %s events, got %d", TypeFileWritten, counts[TypeFileWritten])
	}
	if counts[TypeDaemonStopped] != 1 {
		t.Errorf("expected 1 %s event, got %d", TypeDaemonStopped, counts[TypeDaemonStopped])
	}
}

func TestRecorderBestEffort(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	rec := NewRecorder(store)
	rec.DaemonStarted(ctx, 42)
	rec.FileDeleted(ctx, "old/report.txt")

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to get recent events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// A nil recorder drops events instead of panicking.
	var nilRec *Recorder
	nilRec.ConfigUpdated(ctx, "config.yaml")
	NewRecorder(nil).FolderCreated(ctx, "docs")
}
