// Package remote is the boundary to the hosted relational store.
//
// The sync engine talks to the remote exclusively through the Store
// interface, so tests and offline tooling can substitute the in-memory
// implementation for the HTTP one.
package remote

import (
	"context"

	"github.com/example/rdo/internal/schema"
)

// User is the authenticated session owner.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Store is the remote persistence surface the sync engine requires.
//
// Upserts use id as the conflict key with merge semantics: sending the same
// id twice in one batch is an error, so callers deduplicate first.
type Store interface {
	// Ping probes connectivity. A nil error means the remote is reachable.
	Ping(ctx context.Context) error

	// CurrentUser returns the session user, or nil when no session exists.
	CurrentUser(ctx context.Context) (*User, error)

	SelectReports(ctx context.Context) ([]schema.Report, error)
	SelectActivities(ctx context.Context) ([]schema.Activity, error)
	SelectPendings(ctx context.Context) ([]schema.Pending, error)

	UpsertReports(ctx context.Context, reports []schema.Report) error
	UpsertActivities(ctx context.Context, activities []schema.Activity) error
	UpsertPendings(ctx context.Context, pendings []schema.Pending) error

	DeleteReports(ctx context.Context, ids []string) error
}
