package remote

import (
	"fmt"
	"time"

	"github.com/example/rdo/internal/schema"
)

// reportWire is the decode shape for remote report rows.
//
// Historical clients wrote the soft-delete marker under three different
// spellings. All three are accepted here and collapsed into the canonical
// field; encoding always emits the canonical spelling only, so the aliases
// never leak past this package.
type reportWire struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Date          string              `json:"date"`
	Shift         schema.Shift        `json:"shift"`
	ShiftLetter   schema.ShiftLetter  `json:"shiftLetter"`
	StartTime     string              `json:"startTime"`
	EndTime       string              `json:"endTime"`
	SignatureName string              `json:"signatureName"`
	Status        schema.ReportStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	SyncVersion   int                 `json:"syncVersion"`

	DeletedAt      *time.Time `json:"deletedAt"`
	DeletedAtLower *time.Time `json:"deletedat"`
	DeletedAtSnake *time.Time `json:"deleted_at"`
}

func (w *reportWire) toReport() (schema.Report, error) {
	r := schema.Report{
		ID:            w.ID,
		UserID:        w.UserID,
		Date:          w.Date,
		Shift:         w.Shift,
		ShiftLetter:   w.ShiftLetter,
		StartTime:     w.StartTime,
		EndTime:       w.EndTime,
		SignatureName: w.SignatureName,
		Status:        w.Status,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		SyncVersion:   w.SyncVersion,
	}
	for _, alias := range []*time.Time{w.DeletedAt, w.DeletedAtLower, w.DeletedAtSnake} {
		if alias != nil {
			r.DeletedAt = alias
			break
		}
	}
	if r.ID == "" {
		return schema.Report{}, fmt.Errorf("remote report row without id")
	}
	return r, nil
}

func decodeReports(rows []reportWire) ([]schema.Report, error) {
	out := make([]schema.Report, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toReport()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
