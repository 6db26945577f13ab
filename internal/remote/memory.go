package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/rdo/internal/schema"
)

// Memory is an in-memory Store. It backs the sync engine's tests and the
// offline demo mode, and mirrors the hosted store's batch rule: an upsert
// batch that repeats a conflict key is rejected, not silently merged.
type Memory struct {
	mu         sync.Mutex
	reports    map[string]schema.Report
	activities map[string]schema.Activity
	pendings   map[string]schema.Pending

	// User is returned by CurrentUser. Nil means no session.
	User *User
	// Offline makes every call fail, simulating a connectivity loss.
	Offline bool
	// FailUpserts makes write calls fail after the offline check.
	FailUpserts bool
}

// NewMemory returns an empty in-memory store with a default session user.
func NewMemory() *Memory {
	return &Memory{
		reports:    make(map[string]schema.Report),
		activities: make(map[string]schema.Activity),
		pendings:   make(map[string]schema.Pending),
		User:       &User{ID: "user-1", Email: "operador@example.com"},
	}
}

var _ Store = (*Memory)(nil)

// SetOffline toggles the simulated connectivity under the store lock, so
// tests can flip it while a daemon is running.
func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Offline = offline
}

func (m *Memory) check() error {
	if m.Offline {
		return fmt.Errorf("remote: connection refused")
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check()
}

func (m *Memory) CurrentUser(ctx context.Context) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.User, nil
}

func (m *Memory) SelectReports(ctx context.Context) ([]schema.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	out := make([]schema.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) SelectActivities(ctx context.Context) ([]schema.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	out := make([]schema.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) SelectPendings(ctx context.Context) ([]schema.Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	out := make([]schema.Pending, 0, len(m.pendings))
	for _, p := range m.pendings {
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) writeCheck() error {
	if err := m.check(); err != nil {
		return err
	}
	if m.FailUpserts {
		return fmt.Errorf("remote: write rejected")
	}
	return nil
}

func (m *Memory) UpsertReports(ctx context.Context, reports []schema.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheck(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(reports))
	for _, r := range reports {
		if seen[r.ID] {
			return fmt.Errorf("remote: duplicate conflict key %q in batch", r.ID)
		}
		seen[r.ID] = true
	}
	for _, r := range reports {
		m.reports[r.ID] = r
	}
	return nil
}

func (m *Memory) UpsertActivities(ctx context.Context, activities []schema.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheck(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(activities))
	for _, a := range activities {
		if seen[a.ID] {
			return fmt.Errorf("remote: duplicate conflict key %q in batch", a.ID)
		}
		seen[a.ID] = true
	}
	for _, a := range activities {
		m.activities[a.ID] = a
	}
	return nil
}

func (m *Memory) UpsertPendings(ctx context.Context, pendings []schema.Pending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheck(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(pendings))
	for _, p := range pendings {
		if seen[p.ID] {
			return fmt.Errorf("remote: duplicate conflict key %q in batch", p.ID)
		}
		seen[p.ID] = true
	}
	for _, p := range pendings {
		m.pendings[p.ID] = p
	}
	return nil
}

func (m *Memory) DeleteReports(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeCheck(); err != nil {
		return err
	}
	for _, id := range ids {
		delete(m.reports, id)
	}
	return nil
}

// Report returns the stored report row, if present. Test helper.
func (m *Memory) Report(id string) (schema.Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	return r, ok
}

// Pending returns the stored pending row, if present. Test helper.
func (m *Memory) Pending(id string) (schema.Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pendings[id]
	return p, ok
}

// SeedReport inserts a report row directly, bypassing the batch rules.
func (m *Memory) SeedReport(r schema.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
}

// SeedActivity inserts an activity row directly.
func (m *Memory) SeedActivity(a schema.Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.ID] = a
}

// SeedPending inserts a pending row directly.
func (m *Memory) SeedPending(p schema.Pending) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendings[p.ID] = p
}
