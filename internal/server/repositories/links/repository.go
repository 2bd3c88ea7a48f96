// Package links provides storage and filtered queries for saved bookmarks.
package links

import (
	"context"
	"time"

	"github.com/ymatrosov/linkstash/internal/server/models"
)

// Filter describes the selection every link query is built from. OwnerID is
// always required: owner scoping happens at query construction, not after
// the fetch.
type Filter struct {
	// OwnerID restricts the selection to one user's links.
	OwnerID string

	// Archived filters by archive state when non-nil; nil selects both
	// archived and unarchived links.
	Archived *bool

	// Search, when non-empty, matches case-insensitively as a substring of
	// any of title, url, host, or notes.
	Search string
}

// Repository is the abstract link store consumed by the services layer.
type Repository interface {
	Create(ctx context.Context, link *models.Link) (*models.Link, error)

	// Select returns matching links newest-created first.
	Select(ctx context.Context, f Filter) ([]*models.Link, error)

	// Get fetches a single link by id, scoped to its owner. Absent and
	// foreign rows are indistinguishable: both return common.ErrorNotFound.
	Get(ctx context.Context, ownerID, id string) (*models.Link, error)

	// UpdateFields overwrites only the supplied fields; nil leaves the
	// stored value untouched. URL and host are immutable and not updatable.
	UpdateFields(ctx context.Context, ownerID, id string, title, notes *string) (*models.Link, error)

	// SetArchived stores the given archive timestamp (nil clears it).
	SetArchived(ctx context.Context, ownerID, id string, archivedAt *time.Time) (*models.Link, error)

	Delete(ctx context.Context, ownerID, id string) error

	// DeleteAllForOwner removes every link owned by ownerID. Used by account
	// deletion; removing zero rows is not an error.
	DeleteAllForOwner(ctx context.Context, ownerID string) error

	// Count returns the number of links matching f.
	Count(ctx context.Context, f Filter) (int, error)

	// SelectAtOffset fetches the single link at the given offset under a
	// fixed creation-time-ascending ordering, so that an index drawn
	// against Count maps to a stable row.
	SelectAtOffset(ctx context.Context, f Filter, offset int) (*models.Link, error)
}
