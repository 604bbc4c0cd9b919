package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &RunRecord{
		ID:                 "run-1",
		Subject:            "solar power",
		Status:             "done",
		AttemptsUsed:       2,
		QualityScore:       8.5,
		ReachedSufficiency: true,
		Output:             "final report",
		Artifacts: []ArtifactRecord{
			{Attempt: 1, Payload: "first draft"},
			{Attempt: 2, Payload: "", Degraded: true},
		},
	}
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Subject != "solar power" || loaded.Output != "final report" {
		t.Errorf("unexpected run: %+v", loaded)
	}
	if !loaded.ReachedSufficiency {
		t.Error("sufficiency flag lost")
	}
	if len(loaded.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(loaded.Artifacts))
	}
	if loaded.Artifacts[0].Attempt != 1 || loaded.Artifacts[0].Payload != "first draft" {
		t.Errorf("unexpected first artifact: %+v", loaded.Artifacts[0])
	}
	if !loaded.Artifacts[1].Degraded {
		t.Error("degraded flag lost")
	}
}

func TestGetMissingRun(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestSaveReplacesArtifacts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &RunRecord{ID: "run-1", Subject: "t", Status: "done",
		Artifacts: []ArtifactRecord{{Attempt: 1, Payload: "a"}, {Attempt: 2, Payload: "b"}}}
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	run.Artifacts = []ArtifactRecord{{Attempt: 1, Payload: "only"}}
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("re-Save failed: %v", err)
	}

	loaded, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(loaded.Artifacts) != 1 {
		t.Errorf("expected resave to replace artifacts, got %d", len(loaded.Artifacts))
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, subject := range []string{"oldest", "middle", "newest"} {
		run := &RunRecord{
			ID:        subject,
			Subject:   subject,
			Status:    "done",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Save(ctx, run); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	metas, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(metas))
	}
	if metas[0].Subject != "newest" || metas[2].Subject != "oldest" {
		t.Errorf("expected newest-first ordering, got %s..%s", metas[0].Subject, metas[2].Subject)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}
