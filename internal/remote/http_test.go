package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/rdo/internal/schema"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	token := func(ctx context.Context) (string, error) { return "test-token", nil }
	return NewClient(srv.URL, "test-key", token, log.New(io.Discard, "", 0))
}

func TestSelectReports_CanonicalizesDeletedAt(t *testing.T) {
	rows := `[
		{"id":"rep-1","date":"2026-01-10","status":"SINCRONIZADO",
		 "createdAt":"2026-01-10T07:00:00Z","updatedAt":"2026-01-10T19:00:00Z",
		 "deletedAt":"2026-01-11T10:00:00Z"},
		{"id":"rep-2","date":"2026-01-10","status":"SINCRONIZADO",
		 "createdAt":"2026-01-10T07:00:00Z","updatedAt":"2026-01-10T19:00:00Z",
		 "deletedat":"2026-01-12T10:00:00Z"},
		{"id":"rep-3","date":"2026-01-10","status":"SINCRONIZADO",
		 "createdAt":"2026-01-10T07:00:00Z","updatedAt":"2026-01-10T19:00:00Z",
		 "deleted_at":"2026-01-13T10:00:00Z"},
		{"id":"rep-4","date":"2026-01-10","status":"RASCUNHO",
		 "createdAt":"2026-01-10T07:00:00Z","updatedAt":"2026-01-10T19:00:00Z"}
	]`
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("apikey header missing, got %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("bearer token missing, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(rows))
	}))

	got, err := c.SelectReports(context.Background())
	if err != nil {
		t.Fatalf("SelectReports failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d reports, want 4", len(got))
	}

	wantDays := map[string]int{"rep-1": 11, "rep-2": 12, "rep-3": 13}
	for _, r := range got {
		day, tracked := wantDays[r.ID]
		if !tracked {
			if r.DeletedAt != nil {
				t.Errorf("%s: deletedAt = %v, want nil", r.ID, r.DeletedAt)
			}
			continue
		}
		if r.DeletedAt == nil {
			t.Errorf("%s: deletedAt lost during decode", r.ID)
			continue
		}
		if r.DeletedAt.Day() != day {
			t.Errorf("%s: deletedAt day = %d, want %d", r.ID, r.DeletedAt.Day(), day)
		}
	}
}

func TestUpsertPendings_StripsLocalFields(t *testing.T) {
	var received []map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "on_conflict=id") {
			t.Errorf("missing on_conflict=id in query %q", r.URL.RawQuery)
		}
		if p := r.Header.Get("Prefer"); !strings.Contains(p, "merge-duplicates") {
			t.Errorf("Prefer header = %q, want merge-duplicates", p)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("body is not a JSON array: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	hidden := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	err := c.UpsertPendings(context.Background(), []schema.Pending{{
		ID:          "pen-1",
		PendingKey:  "pen-1",
		ReportID:    "rep-1",
		Priority:    schema.PriorityAlta,
		Description: "x",
		Status:      schema.PendingResolvido,
		Origin:      schema.OriginNova,
		CreatedAt:   hidden,
		DeletedAt:   &hidden,
	}})
	if err != nil {
		t.Fatalf("UpsertPendings failed: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("remote received %d rows, want 1", len(received))
	}
	for _, key := range []string{"deletedAt", "deletedat", "deleted_at"} {
		if _, ok := received[0][key]; ok {
			t.Errorf("local hide marker %q leaked to the remote", key)
		}
	}
	if received[0]["pendingKey"] != "pen-1" {
		t.Errorf("pendingKey missing from wire row: %v", received[0])
	}
}

func TestCurrentUser_NoSession(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		u, err := c.CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("CurrentUser failed on %d: %v", code, err)
		}
		if u != nil {
			t.Errorf("expected nil user for %d, got %+v", code, u)
		}
	}
}

func TestCurrentUser_ServerErrorIsNotNoSession(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("status 401 mentioned in an unrelated body"))
	}))
	if _, err := c.CurrentUser(context.Background()); err == nil {
		t.Fatal("a 500 must surface as an error, not a missing session")
	}
}

func TestDo_SurfacesErrorBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key"}`))
	}))
	err := c.UpsertReports(context.Background(), []schema.Report{{ID: "rep-1"}})
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusConflict || !strings.Contains(se.Body, "duplicate key") {
		t.Errorf("error should carry status and body, got: %+v", se)
	}
}

func TestAdminDeleteReports(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/admin-delete-reports" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req adminDeleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Password != "s3cret" || req.Mode != DeleteIDs || len(req.IDs) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(adminDeleteResponse{Deleted: 2})
	}))

	n, err := c.AdminDeleteReports(context.Background(), "s3cret", DeleteIDs, []string{"rep-1", "rep-2"})
	if err != nil {
		t.Fatalf("AdminDeleteReports failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
}

func TestAdminDeleteReports_Validation(t *testing.T) {
	c := NewClient("http://localhost:0", "k", nil, log.New(io.Discard, "", 0))
	if _, err := c.AdminDeleteReports(context.Background(), "", DeleteAll, nil); err == nil {
		t.Error("expected error for empty password")
	}
	if _, err := c.AdminDeleteReports(context.Background(), "pw", DeleteIDs, nil); err == nil {
		t.Error("expected error for IDS mode without ids")
	}
}
