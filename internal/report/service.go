// Package report implements the shift-report lifecycle: creation with
// inheritance, draft editing, finalize, global issue resolution and
// soft deletion with a short undo window.
package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/rdo/internal/inherit"
	"github.com/example/rdo/internal/schema"
	"github.com/example/rdo/internal/store"
	"github.com/example/rdo/internal/sync"
)

// Syncer triggers a sync pass. Finalize uses it best-effort; a failed pass
// leaves the job queued for the next one.
type Syncer interface {
	SyncNow(ctx context.Context) sync.Result
}

// Service owns every report mutation. UI surfaces call it; nothing else
// writes reports, activities or pendings outside the sync engine's merge.
type Service struct {
	store   *store.Store
	inherit *inherit.Engine
	syncer  Syncer
	logger  *log.Logger
	now     func() time.Time
	newID   func() string

	undo undoBuffer
}

// NewService builds the lifecycle service. syncer may be nil; finalize then
// skips the immediate push and relies on the queued job.
// If logger is nil, a default logger writing to stderr is used.
func NewService(st *store.Store, eng *inherit.Engine, syncer Syncer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[report] ", log.LstdFlags)
	}
	s := &Service{
		store:   st,
		inherit: eng,
		syncer:  syncer,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	s.undo.ttl = 5 * time.Second
	return s
}

// CreateReport opens a new draft for the given crew and date and runs
// inheritance into it. Inheritance failure fails the creation: a report must
// not exist without the issues handed off to it.
func (s *Service) CreateReport(ctx context.Context, userID, date string, shift schema.Shift, letter schema.ShiftLetter) (*schema.Report, error) {
	now := s.now()
	start, end := shift.TimeWindow()
	r := &schema.Report{
		ID:          s.newID(),
		UserID:      userID,
		Date:        date,
		Shift:       shift,
		ShiftLetter: letter,
		StartTime:   start,
		EndTime:     end,
		Status:      schema.StatusRascunho,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncVersion: 1,
	}
	if err := s.store.PutReport(ctx, r); err != nil {
		return nil, err
	}
	if err := s.inherit.InheritOpenPendings(ctx, r.ID, letter); err != nil {
		if rbErr := s.store.DeleteReportRow(ctx, r.ID); rbErr != nil {
			s.logger.Printf("WARNING: rollback of report %s failed: %v", r.ID, rbErr)
		}
		return nil, fmt.Errorf("creating report: %w", err)
	}
	s.logger.Printf("Created report %s (%s, %s)", r.ID, letter, date)
	return r, nil
}

// draft loads a report and checks it is still editable.
func (s *Service) draft(ctx context.Context, reportID string) (*schema.Report, error) {
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r == nil || r.Deleted() {
		return nil, fmt.Errorf("report %s not found", reportID)
	}
	if r.Status != schema.StatusRascunho {
		return nil, fmt.Errorf("report %s is %s and can no longer be edited", reportID, r.Status)
	}
	return r, nil
}

func (s *Service) touch(ctx context.Context, r *schema.Report) error {
	r.Touch(s.now())
	return s.store.PutReport(ctx, r)
}

// AddActivity appends an activity to a draft report.
func (s *Service) AddActivity(ctx context.Context, reportID, timeOfDay, description string) (*schema.Activity, error) {
	r, err := s.draft(ctx, reportID)
	if err != nil {
		return nil, err
	}
	a := &schema.Activity{
		ID:          s.newID(),
		ReportID:    reportID,
		Time:        timeOfDay,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.store.PutActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, s.touch(ctx, r)
}

// RemoveActivity deletes an activity from a draft report.
func (s *Service) RemoveActivity(ctx context.Context, reportID, activityID string) error {
	r, err := s.draft(ctx, reportID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteActivity(ctx, activityID); err != nil {
		return err
	}
	return s.touch(ctx, r)
}

// AddPending records a fresh issue on a draft report. A new issue is its own
// root: pendingKey equals id.
func (s *Service) AddPending(ctx context.Context, reportID string, priority schema.Priority, description string) (*schema.Pending, error) {
	r, err := s.draft(ctx, reportID)
	if err != nil {
		return nil, err
	}
	p := &schema.Pending{
		ID:          s.newID(),
		ReportID:    reportID,
		Priority:    priority,
		Description: description,
		Status:      schema.PendingPendente,
		Origin:      schema.OriginNova,
		CreatedAt:   s.now(),
	}
	p.PendingKey = p.ID
	if err := s.store.PutPending(ctx, p); err != nil {
		return nil, err
	}
	return p, s.touch(ctx, r)
}

// ResolvePending flips every copy of the issue to RESOLVIDO, across all
// reports that hold it, so it never reappears through inheritance. reportID
// names the report the user acted from; its revision is bumped so the resolve
// uploads with it.
func (s *Service) ResolvePending(ctx context.Context, reportID, pendingKey string) error {
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return err
	}
	if r == nil || r.Deleted() {
		return fmt.Errorf("report %s not found", reportID)
	}
	n, err := s.store.ResolveByKey(ctx, pendingKey)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no pending found for key %s", pendingKey)
	}
	s.logger.Printf("Resolved %d copies of issue %s", n, pendingKey)
	return s.touch(ctx, r)
}

// RemovePending is the user-facing "delete" of an issue: resolve it globally,
// hide this one copy locally, and re-queue an upload for every report holding
// a copy so their remote rows also flip to RESOLVIDO.
func (s *Service) RemovePending(ctx context.Context, pendingID string) error {
	p, err := s.store.GetPending(ctx, pendingID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("pending %s not found", pendingID)
	}

	if _, err := s.store.ResolveByKey(ctx, p.PendingKey); err != nil {
		return err
	}
	now := s.now()
	if err := s.store.HidePending(ctx, p.ID, now); err != nil {
		return err
	}

	copies, err := s.store.PendingsByKey(ctx, p.PendingKey)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, c := range copies {
		if seen[c.ReportID] {
			continue
		}
		seen[c.ReportID] = true
		job := &schema.QueueItem{
			ID:        s.newID(),
			Type:      schema.JobUpsertReport,
			ReportID:  c.ReportID,
			CreatedAt: now,
		}
		if err := s.store.EnqueueJob(ctx, job); err != nil {
			return err
		}
	}

	if r, err := s.store.GetReport(ctx, p.ReportID); err == nil && r != nil && !r.Deleted() {
		return s.touch(ctx, r)
	}
	return nil
}

// Finalize closes a draft: a readable signature and at least one activity are
// required. The report is queued for upload and a sync attempt fires
// immediately; an offline failure is non-fatal, the job stays queued.
func (s *Service) Finalize(ctx context.Context, reportID, signatureName string) error {
	r, err := s.draft(ctx, reportID)
	if err != nil {
		return err
	}

	signatureName = strings.TrimSpace(signatureName)
	if len(signatureName) <= 2 {
		return fmt.Errorf("signature name must have at least 3 characters")
	}
	n, err := s.store.CountActivities(ctx, reportID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("report needs at least one activity before finalizing")
	}

	r.SignatureName = signatureName
	r.Status = schema.StatusFinalizado
	if err := s.touch(ctx, r); err != nil {
		return err
	}

	job := &schema.QueueItem{
		ID:        s.newID(),
		Type:      schema.JobUpsertReport,
		ReportID:  reportID,
		CreatedAt: s.now(),
	}
	if err := s.store.EnqueueJob(ctx, job); err != nil {
		return err
	}
	s.logger.Printf("Finalized report %s, signed by %s", reportID, signatureName)

	if s.syncer != nil {
		if res := s.syncer.SyncNow(ctx); !res.Ok {
			s.logger.Printf("Immediate sync after finalize did not complete: %s", res.Message)
		}
	}
	return nil
}
