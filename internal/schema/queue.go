package schema

import (
	"fmt"
	"time"
)

// JobType identifies the kind of outbound sync work a queue item carries.
type JobType string

const (
	// JobUpsertReport pushes a report plus its activities and pendings.
	JobUpsertReport JobType = "UPSERT_REPORT"

	// JobDeleteReport is the legacy hard-delete job. Deletion moved to
	// soft-delete-then-upload, so these jobs are drained without action.
	JobDeleteReport JobType = "DELETE_REPORT"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	return t == JobUpsertReport || t == JobDeleteReport
}

// QueueItem is one outstanding unit of upload work. Items are consumed only
// after a confirmed successful push; a failed push leaves the item intact.
type QueueItem struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	ReportID  string    `json:"reportId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks that the queue item has valid field values.
func (q *QueueItem) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("invalid job type %q", q.Type)
	}
	if q.ReportID == "" {
		return fmt.Errorf("reportId is required")
	}
	if q.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	return nil
}
