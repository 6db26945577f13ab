package schema

import (
	"fmt"
	"time"
)

// Priority orders pendings by severity. Rank 1 is the most urgent.
type Priority string

const (
	PriorityUrgente Priority = "URGENTE"
	PriorityAlta    Priority = "ALTA"
	PriorityMedia   Priority = "MEDIA"
	PriorityBaixa   Priority = "BAIXA"
)

// Rank returns the numeric severity order (URGENTE=1 .. BAIXA=4).
// Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgente:
		return 1
	case PriorityAlta:
		return 2
	case PriorityMedia:
		return 3
	case PriorityBaixa:
		return 4
	}
	return 5
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() < 5
}

// PendingStatus is the open-issue lifecycle state. Transitions run
// PENDENTE -> EM_ANDAMENTO -> RESOLVIDO and are not reversed in practice.
type PendingStatus string

const (
	PendingPendente    PendingStatus = "PENDENTE"
	PendingEmAndamento PendingStatus = "EM_ANDAMENTO"
	PendingResolvido   PendingStatus = "RESOLVIDO"
)

// Valid reports whether s is a known pending status.
func (s PendingStatus) Valid() bool {
	switch s {
	case PendingPendente, PendingEmAndamento, PendingResolvido:
		return true
	}
	return false
}

// Open reports whether the issue still needs attention.
func (s PendingStatus) Open() bool {
	return s != PendingResolvido
}

// Origin records whether a pending was authored in its report or copied
// forward from an earlier shift.
type Origin string

const (
	OriginNova    Origin = "NOVA"
	OriginHerdada Origin = "HERDADA"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginNova || o == OriginHerdada
}

// Pending is one copy of a tracked open issue inside a report.
//
// ID identifies this copy; PendingKey identifies the logical issue across
// every report that carries a copy of it. Resolving by PendingKey is what
// keeps a resolved issue from resurfacing through inheritance.
type Pending struct {
	ID              string        `json:"id"`
	PendingKey      string        `json:"pendingKey"`
	SourcePendingID string        `json:"sourcePendingId,omitempty"`
	ReportID        string        `json:"reportId"`
	Priority        Priority      `json:"priority"`
	Description     string        `json:"description"`
	Status          PendingStatus `json:"status"`
	Origin          Origin        `json:"origin"`
	CreatedAt       time.Time     `json:"createdAt"`

	// DeletedAt hides this copy locally after the user removes it. The
	// remote tables have no such column, so it never goes on the wire.
	DeletedAt *time.Time `json:"-"`
}

// RootID resolves the issue's canonical identity: the oldest ancestor the
// row knows about. Inherited copies always point at the root, so chains
// never accumulate.
func (p *Pending) RootID() string {
	if p.SourcePendingID != "" {
		return p.SourcePendingID
	}
	if p.PendingKey != "" {
		return p.PendingKey
	}
	return p.ID
}

// Validate checks that the pending has valid field values.
func (p *Pending) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.PendingKey == "" {
		return fmt.Errorf("pendingKey is required")
	}
	if p.ReportID == "" {
		return fmt.Errorf("reportId is required")
	}
	if !p.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", p.Priority)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	if !p.Origin.Valid() {
		return fmt.Errorf("invalid origin %q", p.Origin)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	return nil
}
