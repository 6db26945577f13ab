// Package sync reconciles the local store with the remote store.
//
// The model is offline-first and eventually consistent: local mutations queue
// upload jobs, SyncNow drains the queue against the remote and then replaces
// local state from the full remote snapshot. Conflicts resolve last-writer-
// wins at upsert granularity.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/example/rdo/internal/remote"
	"github.com/example/rdo/internal/schema"
	"github.com/example/rdo/internal/store"
)

// Result is the outcome of one sync pass. Failures are values, never panics:
// the caller decides whether to surface, retry or ignore.
type Result struct {
	Ok      bool   `json:"ok"`
	Synced  int    `json:"synced"`
	Message string `json:"message,omitempty"`
}

// Syncer drives sync passes. One Syncer per process; a single in-flight
// guard makes overlapping SyncNow calls return immediately instead of
// queueing behind each other.
type Syncer struct {
	store   *store.Store
	remote  remote.Store
	logger  *log.Logger
	running atomic.Bool
}

// New creates a Syncer over the given local and remote stores.
// If logger is nil, a default logger writing to stderr is used.
func New(st *store.Store, rem remote.Store, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Syncer{store: st, remote: rem, logger: logger}
}

// Running reports whether a sync pass is currently in flight.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// SyncNow runs one full pass: upload the queued jobs, then pull and merge the
// remote snapshot. A second call while one is in flight returns an
// unsuccessful Result without waiting.
func (s *Syncer) SyncNow(ctx context.Context) Result {
	if !s.running.CompareAndSwap(false, true) {
		return Result{Ok: false, Message: "sync already running"}
	}
	defer s.running.Store(false)

	if err := s.remote.Ping(ctx); err != nil {
		return Result{Ok: false, Message: fmt.Sprintf("offline: %v", err)}
	}
	user, err := s.remote.CurrentUser(ctx)
	if err != nil {
		return Result{Ok: false, Message: fmt.Sprintf("session check failed: %v", err)}
	}
	if user == nil {
		return Result{Ok: false, Message: "no user session"}
	}

	synced, err := s.upload(ctx)
	if err != nil {
		s.logger.Printf("Upload halted after %d jobs: %v", synced, err)
		return Result{Ok: false, Synced: synced, Message: err.Error()}
	}

	if err := s.download(ctx); err != nil {
		s.logger.Printf("Download failed: %v", err)
		return Result{Ok: false, Synced: synced, Message: err.Error()}
	}

	s.logger.Printf("Sync complete: %d jobs uploaded", synced)
	return Result{Ok: true, Synced: synced}
}

// upload drains the queue in creation order. The first failure leaves the
// failing job and everything behind it in place, preserving per-report retry
// ordering.
func (s *Syncer) upload(ctx context.Context) (int, error) {
	jobs, err := s.store.Jobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading queue: %w", err)
	}

	synced := 0
	for _, job := range jobs {
		if job.Type == schema.JobDeleteReport {
			// Superseded by soft-delete-then-upload. Drain without action.
			if err := s.store.DeleteJob(ctx, job.ID); err != nil {
				return synced, fmt.Errorf("draining legacy job %s: %w", job.ID, err)
			}
			continue
		}

		if err := s.uploadReport(ctx, job); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

func (s *Syncer) uploadReport(ctx context.Context, job schema.QueueItem) error {
	report, err := s.store.GetReport(ctx, job.ReportID)
	if err != nil {
		return fmt.Errorf("loading report %s: %w", job.ReportID, err)
	}
	if report == nil {
		// The report is gone locally; the job has nothing left to say.
		return s.store.DeleteJob(ctx, job.ID)
	}

	activities, err := s.store.ActivitiesByReport(ctx, report.ID)
	if err != nil {
		return fmt.Errorf("loading activities for %s: %w", report.ID, err)
	}
	pendings, err := s.store.PendingsByReport(ctx, report.ID)
	if err != nil {
		return fmt.Errorf("loading pendings for %s: %w", report.ID, err)
	}
	for i := range pendings {
		pendings[i].ID = schema.NormalizeID(pendings[i].ID)
		pendings[i].SourcePendingID = schema.NormalizeID(pendings[i].SourcePendingID)
		pendings[i].PendingKey = schema.NormalizeID(pendings[i].PendingKey)
	}
	pendings = dedupeByID(pendings)

	// Finalized and alive means this push is the sync itself: send it as
	// SINCRONIZADO, but flip the local row only after the remote accepts.
	outbound := *report
	markSynced := report.Status == schema.StatusFinalizado && !report.Deleted()
	if markSynced {
		outbound.Status = schema.StatusSincronizado
	}

	if err := s.remote.UpsertReports(ctx, []schema.Report{outbound}); err != nil {
		return fmt.Errorf("uploading report %s: %w", report.ID, err)
	}
	if err := s.remote.UpsertActivities(ctx, activities); err != nil {
		return fmt.Errorf("uploading activities for %s: %w", report.ID, err)
	}
	if err := s.remote.UpsertPendings(ctx, pendings); err != nil {
		return fmt.Errorf("uploading pendings for %s: %w", report.ID, err)
	}

	if err := s.store.CompleteUpload(ctx, job.ID, report.ID, markSynced); err != nil {
		return fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return nil
}

// download pulls the full remote snapshot and merges it locally.
func (s *Syncer) download(ctx context.Context) error {
	reports, err := s.remote.SelectReports(ctx)
	if err != nil {
		return fmt.Errorf("fetching reports: %w", err)
	}
	activities, err := s.remote.SelectActivities(ctx)
	if err != nil {
		return fmt.Errorf("fetching activities: %w", err)
	}
	pendings, err := s.remote.SelectPendings(ctx)
	if err != nil {
		return fmt.Errorf("fetching pendings: %w", err)
	}

	// Tombstones merge like any other row so the deletion fact replicates.
	if err := s.store.BulkPutReports(ctx, reports); err != nil {
		return fmt.Errorf("merging reports: %w", err)
	}
	if err := s.store.BulkPutActivities(ctx, activities); err != nil {
		return fmt.Errorf("merging activities: %w", err)
	}

	merged, affected := dedupeByIssue(pendings)
	if err := s.store.BulkPutPendings(ctx, merged); err != nil {
		return fmt.Errorf("merging pendings: %w", err)
	}

	if err := s.cleanupDuplicates(ctx, affected); err != nil {
		return err
	}

	deleted, err := s.store.SoftDeletedReportIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing tombstones: %w", err)
	}
	if len(deleted) > 0 {
		if err := s.store.PurgeReportChildren(ctx, deleted); err != nil {
			return fmt.Errorf("purging deleted reports' children: %w", err)
		}
	}
	return nil
}

// cleanupDuplicates repairs duplication left behind by earlier buggy syncs:
// for each report touched by the merge, rows that lose the issue-level
// tie-break to a sibling row are deleted.
func (s *Syncer) cleanupDuplicates(ctx context.Context, reportIDs []string) error {
	var losers []string
	for _, reportID := range reportIDs {
		local, err := s.store.PendingsByReport(ctx, reportID)
		if err != nil {
			return fmt.Errorf("cleanup for %s: %w", reportID, err)
		}
		winners := make(map[string]schema.Pending)
		for _, p := range local {
			key := issueKey(p)
			if prev, ok := winners[key]; !ok || betterCopy(p, prev) {
				winners[key] = p
			}
		}
		for _, p := range local {
			if winners[issueKey(p)].ID != p.ID {
				losers = append(losers, p.ID)
			}
		}
	}
	if len(losers) == 0 {
		return nil
	}
	s.logger.Printf("Cleanup removing %d duplicate pendings", len(losers))
	return s.store.DeletePendings(ctx, losers)
}

// issueKey is the logical identity of a pending within its report.
func issueKey(p schema.Pending) string {
	key := p.PendingKey
	if key == "" {
		key = p.SourcePendingID
	}
	if key == "" {
		key = p.ID
	}
	return p.ReportID + "\x00" + key
}

// betterCopy reports whether a beats b for the same issue key: a
// deterministic composite id outranks a bare one, then later createdAt wins.
func betterCopy(a, b schema.Pending) bool {
	aDerived, bDerived := schema.IsDerivedID(a.ID), schema.IsDerivedID(b.ID)
	if aDerived != bDerived {
		return aDerived
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// dedupeByID collapses rows sharing an id, keeping the latest createdAt. The
// remote rejects a batch that repeats its conflict key.
func dedupeByID(pendings []schema.Pending) []schema.Pending {
	if len(pendings) < 2 {
		return pendings
	}
	byID := make(map[string]schema.Pending, len(pendings))
	order := make([]string, 0, len(pendings))
	for _, p := range pendings {
		prev, ok := byID[p.ID]
		if !ok {
			order = append(order, p.ID)
			byID[p.ID] = p
			continue
		}
		if p.CreatedAt.After(prev.CreatedAt) {
			byID[p.ID] = p
		}
	}
	out := make([]schema.Pending, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// dedupeByIssue collapses downloaded rows sharing an issue key and returns
// the surviving rows plus the distinct report ids they touch.
func dedupeByIssue(pendings []schema.Pending) ([]schema.Pending, []string) {
	winners := make(map[string]schema.Pending, len(pendings))
	order := make([]string, 0, len(pendings))
	reports := make(map[string]bool)
	var reportOrder []string
	for _, p := range pendings {
		if !reports[p.ReportID] {
			reports[p.ReportID] = true
			reportOrder = append(reportOrder, p.ReportID)
		}
		key := issueKey(p)
		prev, ok := winners[key]
		if !ok {
			order = append(order, key)
			winners[key] = p
			continue
		}
		if betterCopy(p, prev) {
			winners[key] = p
		}
	}
	out := make([]schema.Pending, 0, len(order))
	for _, key := range order {
		out = append(out, winners[key])
	}
	return out, reportOrder
}
