// Package schema provides the entity types shared by the local store, the
// inheritance engine and the sync engine.
//
// All timestamps travel as RFC 3339 strings on the wire and are stored the
// same way in the local database; in memory they are time.Time. Field names
// on the wire are camelCase because the remote tables were created that way.
package schema

import (
	"fmt"
	"time"
)

// Shift identifies the work period of a report.
type Shift string

const (
	ShiftDiurno  Shift = "DIURNO"
	ShiftNoturno Shift = "NOTURNO"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	return s == ShiftDiurno || s == ShiftNoturno
}

// TimeWindow returns the default start/end times for the shift.
func (s Shift) TimeWindow() (start, end string) {
	if s == ShiftNoturno {
		return "19:00", "07:00"
	}
	return "07:00", "19:00"
}

// ReportStatus is the report lifecycle state.
//
// RASCUNHO is the only mutable state. FINALIZADO means finalized locally and
// waiting for a confirmed push; SINCRONIZADO means the remote store has
// acknowledged the report.
type ReportStatus string

const (
	StatusRascunho     ReportStatus = "RASCUNHO"
	StatusFinalizado   ReportStatus = "FINALIZADO"
	StatusSincronizado ReportStatus = "SINCRONIZADO"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusRascunho, StatusFinalizado, StatusSincronizado:
		return true
	}
	return false
}

// Report is one shift's logbook entry.
type Report struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	Date          string       `json:"date"` // YYYY-MM-DD
	Shift         Shift        `json:"shift"`
	ShiftLetter   ShiftLetter  `json:"shiftLetter"`
	StartTime     string       `json:"startTime"` // HH:mm
	EndTime       string       `json:"endTime"`   // HH:mm
	SignatureName string       `json:"signatureName"`
	Status        ReportStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	SyncVersion   int          `json:"syncVersion"`

	// DeletedAt is the soft-delete tombstone marker. A non-nil value means
	// the report is hidden everywhere but the row itself must survive so the
	// deletion fact replicates to other devices.
	DeletedAt *time.Time `json:"deletedAt"`
}

// Deleted reports whether the report carries a soft-delete marker.
func (r *Report) Deleted() bool {
	return r.DeletedAt != nil
}

// Validate checks that the report has valid field values.
func (r *Report) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Date == "" {
		return fmt.Errorf("date is required")
	}
	if !r.Shift.Valid() {
		return fmt.Errorf("invalid shift %q", r.Shift)
	}
	tag, err := ParseShiftLetter(string(r.ShiftLetter))
	if err != nil {
		return fmt.Errorf("invalid shift letter: %w", err)
	}
	// 3x2 crews only work day shifts.
	if tag.Rotation == Rotation3x2 && r.Shift != ShiftDiurno {
		return fmt.Errorf("rotation 3x2 only works %s shifts", ShiftDiurno)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	if r.UpdatedAt.IsZero() {
		return fmt.Errorf("updatedAt is required")
	}
	return nil
}

// Touch bumps the report's revision after a local mutation.
func (r *Report) Touch(now time.Time) {
	r.UpdatedAt = now
	r.SyncVersion++
}
