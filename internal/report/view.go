package report

import (
	"context"
	"sort"

	"github.com/example/rdo/internal/schema"
)

// Summary is the home-screen projection of one report.
type Summary struct {
	Report       schema.Report `json:"report"`
	Activities   int           `json:"activities"`
	OpenPendings int           `json:"openPendings"`
}

// Overview lists the live reports the way the home screen shows them:
// drafts first, then by date descending, then by last update descending.
// It only reads; the periodic UI refresh calls it freely during a sync.
func (s *Service) Overview(ctx context.Context) ([]Summary, error) {
	reports, err := s.store.ListActiveReports(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		aDraft := a.Status == schema.StatusRascunho
		bDraft := b.Status == schema.StatusRascunho
		if aDraft != bDraft {
			return aDraft
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	out := make([]Summary, 0, len(reports))
	for _, r := range reports {
		acts, err := s.store.CountActivities(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		open, err := s.store.CountOpenPendings(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Report: r, Activities: acts, OpenPendings: open})
	}
	return out, nil
}

// Detail returns one report with its activities and visible pendings.
func (s *Service) Detail(ctx context.Context, reportID string) (*schema.Report, []schema.Activity, []schema.Pending, error) {
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, nil, nil, err
	}
	if r == nil {
		return nil, nil, nil, nil
	}
	acts, err := s.store.ActivitiesByReport(ctx, reportID)
	if err != nil {
		return nil, nil, nil, err
	}
	pens, err := s.store.PendingsByReport(ctx, reportID)
	if err != nil {
		return nil, nil, nil, err
	}
	visible := pens[:0]
	for _, p := range pens {
		if p.DeletedAt == nil {
			visible = append(visible, p)
		}
	}
	return r, acts, visible, nil
}
