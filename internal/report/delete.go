package report

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/example/rdo/internal/schema"
)

// undoBuffer holds the pre-delete snapshot of the most recent soft delete
// until its window expires. Only the latest delete is undoable; a newer
// delete discards the previous snapshot.
type undoBuffer struct {
	mu    stdsync.Mutex
	ttl   time.Duration
	snap  *deleteSnapshot
	timer *time.Timer
}

type deleteSnapshot struct {
	reports    []schema.Report
	activities []schema.Activity
	pendings   []schema.Pending
	jobIDs     []string
}

func (b *undoBuffer) arm(snap *deleteSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.snap = snap
	b.timer = time.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.snap = nil
		b.timer = nil
	})
}

// take removes and returns the snapshot if the window is still open.
func (b *undoBuffer) take() *deleteSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.snap
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.snap = nil
	return snap
}

// SoftDeleteReports tombstones the given reports, clears their local
// activities and pendings, and queues one upload per report so the deletion
// replicates. The pre-delete state stays undoable for about five seconds.
func (s *Service) SoftDeleteReports(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	reports, err := s.store.GetReports(ctx, ids)
	if err != nil {
		return err
	}
	if len(reports) != len(ids) {
		return fmt.Errorf("found %d of %d reports to delete", len(reports), len(ids))
	}

	snap := &deleteSnapshot{reports: reports}
	now := s.now()
	var jobs []schema.QueueItem
	for _, r := range reports {
		acts, err := s.store.ActivitiesByReport(ctx, r.ID)
		if err != nil {
			return err
		}
		pens, err := s.store.PendingsByReport(ctx, r.ID)
		if err != nil {
			return err
		}
		snap.activities = append(snap.activities, acts...)
		snap.pendings = append(snap.pendings, pens...)

		job := schema.QueueItem{
			ID:        s.newID(),
			Type:      schema.JobUpsertReport,
			ReportID:  r.ID,
			CreatedAt: now,
		}
		jobs = append(jobs, job)
		snap.jobIDs = append(snap.jobIDs, job.ID)
	}

	if err := s.store.SoftDeleteReports(ctx, ids, now, jobs); err != nil {
		return err
	}
	s.undo.arm(snap)
	s.logger.Printf("Soft-deleted %d reports (undo window %s)", len(ids), s.undo.ttl)
	return nil
}

// UndoDelete restores the snapshot of the last soft delete and cancels its
// queued uploads. It reports whether there was anything left to undo.
func (s *Service) UndoDelete(ctx context.Context) (bool, error) {
	snap := s.undo.take()
	if snap == nil {
		return false, nil
	}
	err := s.store.RestoreReports(ctx, snap.reports, snap.activities, snap.pendings, snap.jobIDs)
	if err != nil {
		return false, err
	}
	s.logger.Printf("Restored %d reports", len(snap.reports))
	return true, nil
}
