package schema

import (
	"fmt"
	"time"
)

// Activity is one logged action inside a report. Activities are owned by
// their report and are never inherited, so hard local deletes are fine.
type Activity struct {
	ID          string    `json:"id"`
	ReportID    string    `json:"reportId"`
	Time        string    `json:"time"` // HH:mm
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks that the activity has valid field values.
func (a *Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.ReportID == "" {
		return fmt.Errorf("reportId is required")
	}
	if a.Time == "" {
		return fmt.Errorf("time is required")
	}
	if a.Description == "" {
		return fmt.Errorf("description is required")
	}
	if a.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	return nil
}
