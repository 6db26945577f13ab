package inherit

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/rdo/internal/schema"
	"github.com/example/rdo/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func setupEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st := setupTestStore(t)
	e := New(st, log.New(io.Discard, "", 0))
	e.now = func() time.Time { return time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC) }
	return e, st
}

func seedReport(t *testing.T, st *store.Store, id string, letter schema.ShiftLetter, status schema.ReportStatus, updated time.Time) {
	t.Helper()
	err := st.PutReport(context.Background(), &schema.Report{
		ID:          id,
		UserID:      "user-1",
		Date:        updated.Format("2006-01-02"),
		Shift:       schema.ShiftDiurno,
		ShiftLetter: letter,
		StartTime:   "07:00",
		EndTime:     "19:00",
		Status:      status,
		CreatedAt:   updated.Add(-12 * time.Hour),
		UpdatedAt:   updated,
		SyncVersion: 1,
	})
	if err != nil {
		t.Fatalf("seedReport(%s) failed: %v", id, err)
	}
}

func seedPending(t *testing.T, st *store.Store, p schema.Pending) {
	t.Helper()
	if p.PendingKey == "" {
		p.PendingKey = p.ID
	}
	if p.Priority == "" {
		p.Priority = schema.PriorityMedia
	}
	if p.Status == "" {
		p.Status = schema.PendingPendente
	}
	if p.Origin == "" {
		p.Origin = schema.OriginNova
	}
	if err := st.PutPending(context.Background(), &p); err != nil {
		t.Fatalf("seedPending(%s) failed: %v", p.ID, err)
	}
}

func TestInherit_CopiesOpenPendings(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	seedReport(t, st, "rep-src", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{
		ID: "pen-1", ReportID: "rep-src",
		Description: "trocar filtro", Status: schema.PendingEmAndamento,
		Priority: schema.PriorityUrgente, CreatedAt: base,
	})
	seedPending(t, st, schema.Pending{
		ID: "pen-2", ReportID: "rep-src",
		Description: "ja resolvida", Status: schema.PendingResolvido, CreatedAt: base,
	})

	seedReport(t, st, "rep-new", "4x4 B", schema.StatusRascunho, base.Add(12*time.Hour))
	if err := e.InheritOpenPendings(ctx, "rep-new", "4x4 B"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("inherited %d pendings, want 1 (resolved issues stay behind)", len(got))
	}

	p := got[0]
	if p.ID != "rep-new_pen-1" {
		t.Errorf("id = %q, want deterministic derived id rep-new_pen-1", p.ID)
	}
	if p.PendingKey != "pen-1" || p.SourcePendingID != "pen-1" {
		t.Errorf("identity not carried: key=%q source=%q", p.PendingKey, p.SourcePendingID)
	}
	if p.Origin != schema.OriginHerdada {
		t.Errorf("origin = %s, want HERDADA", p.Origin)
	}
	if p.Status != schema.PendingEmAndamento {
		t.Errorf("status = %s, want EM_ANDAMENTO carried forward", p.Status)
	}
	if p.Priority != schema.PriorityUrgente || p.Description != "trocar filtro" {
		t.Errorf("content not carried: %+v", p)
	}
}

func TestInherit_Idempotent(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	seedReport(t, st, "rep-src", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-1", ReportID: "rep-src", Description: "x", CreatedAt: base})
	seedReport(t, st, "rep-new", "4x4 A", schema.StatusRascunho, base.Add(12*time.Hour))

	for i := 0; i < 3; i++ {
		if err := e.InheritOpenPendings(ctx, "rep-new", "4x4 A"); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d pendings after three runs, want 1", len(got))
	}
}

func TestInherit_RootAncestorDedupe(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 20, 19, 0, 0, 0, time.UTC)

	// Crew A holds the original issue; crew B already holds an inherited
	// copy of it. Both are sources for the new report, but the issue must
	// come through once, keyed by its root.
	seedReport(t, st, "rep-a", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-root", ReportID: "rep-a", Description: "original", CreatedAt: base})

	seedReport(t, st, "rep-b", "4x4 B", schema.StatusSincronizado, base.Add(24*time.Hour))
	seedPending(t, st, schema.Pending{
		ID: "rep-b_pen-root", PendingKey: "pen-root", SourcePendingID: "pen-root",
		ReportID: "rep-b", Description: "copia mais recente",
		Origin: schema.OriginHerdada, CreatedAt: base.Add(24 * time.Hour),
	})

	seedReport(t, st, "rep-new", "4x4 C", schema.StatusRascunho, base.Add(48*time.Hour))
	if err := e.InheritOpenPendings(ctx, "rep-new", "4x4 C"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d pendings, want the two copies collapsed to 1", len(got))
	}
	p := got[0]
	if p.ID != "rep-new_pen-root" || p.PendingKey != "pen-root" || p.SourcePendingID != "pen-root" {
		t.Errorf("identity must resolve to the root ancestor, got %+v", p)
	}
	if p.Description != "copia mais recente" {
		t.Errorf("content should come from the latest copy, got %q", p.Description)
	}
}

func TestInherit_FamilyIsolation(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	seedReport(t, st, "rep-4x4", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-4x4", ReportID: "rep-4x4", Description: "x", CreatedAt: base})

	seedReport(t, st, "rep-new", "3x2 A", schema.StatusRascunho, base.Add(12*time.Hour))
	if err := e.InheritOpenPendings(ctx, "rep-new", "3x2 A"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("3x2 report inherited %d pendings from the 4x4 family, want 0", len(got))
	}
}

func TestInherit_OnlySyncedSources(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	// A draft and a finalized-but-unsynced report are not handoff sources.
	seedReport(t, st, "rep-draft", "4x4 A", schema.StatusRascunho, base)
	seedPending(t, st, schema.Pending{ID: "pen-d", ReportID: "rep-draft", Description: "x", CreatedAt: base})
	seedReport(t, st, "rep-fin", "4x4 B", schema.StatusFinalizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-f", ReportID: "rep-fin", Description: "y", CreatedAt: base})

	seedReport(t, st, "rep-new", "4x4 C", schema.StatusRascunho, base.Add(12*time.Hour))
	if err := e.InheritOpenPendings(ctx, "rep-new", "4x4 C"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("inherited %d pendings from unsynced reports, want 0", len(got))
	}
}

func TestInherit_NeverFromItself(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	seedReport(t, st, "rep-self", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-own", ReportID: "rep-self", Description: "x", CreatedAt: base})

	if err := e.InheritOpenPendings(ctx, "rep-self", "4x4 A"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-self")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d pendings, want just the original", len(got))
	}
	if got[0].Origin != schema.OriginNova {
		t.Errorf("report inherited from itself: %+v", got[0])
	}
}

func TestInherit_UsedKeyGuard(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 27, 19, 0, 0, 0, time.UTC)
	seedReport(t, st, "rep-src", "4x4 A", schema.StatusSincronizado, base)
	seedPending(t, st, schema.Pending{ID: "pen-1", ReportID: "rep-src", Description: "x", CreatedAt: base})

	// The new report already carries a row for this issue under a
	// different local id. Inheritance must not add a second copy.
	seedReport(t, st, "rep-new", "4x4 B", schema.StatusRascunho, base.Add(12*time.Hour))
	seedPending(t, st, schema.Pending{
		ID: "manual-copy", PendingKey: "pen-1", SourcePendingID: "pen-1",
		ReportID: "rep-new", Description: "x", Origin: schema.OriginHerdada, CreatedAt: base,
	})

	if err := e.InheritOpenPendings(ctx, "rep-new", "4x4 B"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}

	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d pendings, want 1 (existing key blocks the copy)", len(got))
	}
}

func TestInherit_InvalidLetter(t *testing.T) {
	e, _ := setupEngine(t)
	if err := e.InheritOpenPendings(context.Background(), "rep-x", "5x5 Z"); err == nil {
		t.Error("expected error for malformed shift letter")
	}
}

func TestInherit_NoSources(t *testing.T) {
	e, st := setupEngine(t)
	ctx := context.Background()

	seedReport(t, st, "rep-new", "3x2 B", schema.StatusRascunho,
		time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
	if err := e.InheritOpenPendings(ctx, "rep-new", "3x2 B"); err != nil {
		t.Fatalf("InheritOpenPendings failed: %v", err)
	}
	got, err := st.PendingsByReport(ctx, "rep-new")
	if err != nil {
		t.Fatalf("PendingsByReport failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("no-op run wrote %d pendings", len(got))
	}
}
