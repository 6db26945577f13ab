package export

import (
	"strings"
	"testing"
	"time"

	"github.com/example/rdo/internal/schema"
)

func sampleReport() schema.Report {
	at := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	return schema.Report{
		ID: "rep-1", UserID: "user-1", Date: "2026-05-01",
		Shift: schema.ShiftDiurno, ShiftLetter: "4x4 A",
		StartTime: "07:00", EndTime: "19:00",
		SignatureName: "Ana Lima", Status: schema.StatusFinalizado,
		CreatedAt: at, UpdatedAt: at, SyncVersion: 2,
	}
}

func pending(id string, prio schema.Priority, origin schema.Origin, status schema.PendingStatus, created time.Time) schema.Pending {
	return schema.Pending{
		ID: id, PendingKey: id, ReportID: "rep-1",
		Priority: prio, Description: "desc " + id,
		Status: status, Origin: origin, CreatedAt: created,
	}
}

func TestBuildDocument(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	activities := []schema.Activity{
		{ID: "a2", ReportID: "rep-1", Time: "14:30", Description: "tarde", CreatedAt: at},
		{ID: "a1", ReportID: "rep-1", Time: "07:15", Description: "manha", CreatedAt: at},
	}
	hidden := at.Add(time.Hour)
	pendings := []schema.Pending{
		pending("p-baixa", schema.PriorityBaixa, schema.OriginNova, schema.PendingPendente, at),
		pending("p-urgente", schema.PriorityUrgente, schema.OriginNova, schema.PendingPendente, at),
		pending("p-herdada", schema.PriorityMedia, schema.OriginHerdada, schema.PendingEmAndamento, at),
		pending("p-resolvida", schema.PriorityAlta, schema.OriginHerdada, schema.PendingResolvido, at),
	}
	gone := pending("p-oculta", schema.PriorityAlta, schema.OriginNova, schema.PendingResolvido, at)
	gone.DeletedAt = &hidden
	pendings = append(pendings, gone)

	doc := BuildDocument(sampleReport(), activities, pendings)

	if doc.Activities[0].Time != "07:15" || doc.Activities[1].Time != "14:30" {
		t.Errorf("activities not time-sorted: %+v", doc.Activities)
	}
	if len(doc.New) != 2 || doc.New[0].ID != "p-urgente" || doc.New[1].ID != "p-baixa" {
		t.Errorf("new pendings wrong order: %+v", doc.New)
	}
	if len(doc.Inherited) != 2 || doc.Inherited[0].ID != "p-resolvida" {
		t.Errorf("inherited pendings wrong order: %+v", doc.Inherited)
	}
	if doc.Open != 3 || doc.Resolved != 1 {
		t.Errorf("counts open=%d resolved=%d, want 3/1 (hidden row excluded)", doc.Open, doc.Resolved)
	}
	if doc.Filename != "relatorio_4x4-A_2026-05-01.pdf" {
		t.Errorf("filename = %q", doc.Filename)
	}
}

func TestRender(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	doc := BuildDocument(sampleReport(),
		[]schema.Activity{{ID: "a1", ReportID: "rep-1", Time: "08:00", Description: "partida", CreatedAt: at}},
		[]schema.Pending{pending("p-1", schema.PriorityAlta, schema.OriginNova, schema.PendingPendente, at)},
	)

	var out strings.Builder
	if err := Render(&out, doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{"2026-05-01", "Ana Lima", "08:00  partida", "[ALTA] PENDENTE", "Abertas: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered output missing %q:\n%s", want, text)
		}
	}
}
