// Package inherit copies still-open issues from prior shift reports into a
// newly created report.
//
// Inheritance runs once, synchronously, during report creation. It reads only
// the local store and performs additive upserts, so re-running it for the
// same report converges on the same rows instead of duplicating them.
package inherit

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/rdo/internal/schema"
	"github.com/example/rdo/internal/store"
)

// Engine computes and writes inherited pendings for new reports.
type Engine struct {
	store  *store.Store
	logger *log.Logger
	now    func() time.Time
}

// New creates an inheritance engine over the given store.
// If logger is nil, a default logger writing to stderr is used.
func New(st *store.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[inherit] ", log.LstdFlags)
	}
	return &Engine{store: st, logger: logger, now: time.Now}
}

// InheritOpenPendings populates the new report with copies of every issue
// still open on the latest fully-synced report of each sibling crew in the
// same rotation family.
//
// Issue identity is the root ancestor id: a copy of a copy always traces back
// to the original row, so parallel crews' copies of the same issue collapse
// to one candidate. Inserted rows get a deterministic id derived from
// (newReportID, rootID), which makes repeated invocation collide on the
// primary key instead of inserting twice.
func (e *Engine) InheritOpenPendings(ctx context.Context, newReportID string, letter schema.ShiftLetter) error {
	tag, err := schema.ParseShiftLetter(string(letter))
	if err != nil {
		return fmt.Errorf("inherit: %w", err)
	}

	var sourceIDs []string
	for _, sib := range tag.Siblings() {
		src, err := e.store.LatestSyncedReport(ctx, sib.Letter(), newReportID)
		if err != nil {
			return fmt.Errorf("inherit: finding source for %s: %w", sib, err)
		}
		if src != nil {
			sourceIDs = append(sourceIDs, src.ID)
		}
	}
	if len(sourceIDs) == 0 {
		return nil
	}

	open, err := e.store.OpenPendingsByReports(ctx, sourceIDs)
	if err != nil {
		return fmt.Errorf("inherit: loading open pendings: %w", err)
	}
	if len(open) == 0 {
		return nil
	}

	// Collapse sibling copies of the same issue. The surviving copy supplies
	// the content; the later createdAt is the fresher handoff note.
	candidates := make(map[string]schema.Pending)
	for _, p := range open {
		root := p.RootID()
		if prev, ok := candidates[root]; ok && !p.CreatedAt.After(prev.CreatedAt) {
			continue
		}
		candidates[root] = p
	}

	existing, err := e.store.PendingsByReport(ctx, newReportID)
	if err != nil {
		return fmt.Errorf("inherit: loading existing pendings: %w", err)
	}
	usedKeys := make(map[string]bool, len(existing))
	for _, p := range existing {
		usedKeys[p.PendingKey] = true
	}

	now := e.now()
	var inherited []schema.Pending
	for root, src := range candidates {
		if usedKeys[root] {
			continue
		}
		inherited = append(inherited, schema.Pending{
			ID:              schema.DerivedID(newReportID, root),
			PendingKey:      root,
			SourcePendingID: root,
			ReportID:        newReportID,
			Priority:        src.Priority,
			Description:     src.Description,
			Status:          src.Status,
			Origin:          schema.OriginHerdada,
			CreatedAt:       now,
		})
	}
	if len(inherited) == 0 {
		return nil
	}

	if err := e.store.BulkPutPendings(ctx, inherited); err != nil {
		return fmt.Errorf("inherit: writing %d pendings: %w", len(inherited), err)
	}
	e.logger.Printf("Inherited %d pendings into report %s from %d source reports",
		len(inherited), newReportID, len(sourceIDs))
	return nil
}
