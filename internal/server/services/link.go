package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/server/models"
	"github.com/ymatrosov/linkstash/internal/server/repositories/links"
	"github.com/ymatrosov/linkstash/internal/server/repositories/repomanager"
)

// randIntN is a seam for testing uniform selection deterministically.
var randIntN = rand.IntN

// LinkService implements the link query engine. Every operation is scoped
// to the calling owner at query construction, so cross-user access is
// impossible regardless of what id a caller guesses.
type LinkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewLinkService constructs a LinkService over the given repositories.
func NewLinkService(db *sql.DB, m repomanager.RepositoryManager) *LinkService {
	return &LinkService{db: db, repomanager: m}
}

// CreateLinkInput carries the fields accepted at link creation. Title and
// Notes are optional; a nil Title falls back to the raw URL string.
type CreateLinkInput struct {
	URL   string
	Title *string
	Notes *string
}

// UpdateLinkInput carries the mutable link fields. A nil field keeps the
// stored value; an explicit empty string overwrites it. URL and host are
// immutable after creation and deliberately absent here.
type UpdateLinkInput struct {
	Title *string
	Notes *string
}

// ListQuery filters List results. Archived is tri-state: nil returns links
// in both archive states.
type ListQuery struct {
	Search   string
	Archived *bool
}

// parseHost extracts the authority component (including any port) from an
// absolute URL. A URL without both scheme and host is rejected.
func parseHost(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", common.ErrInvalidURL
	}
	return parsed.Host, nil
}

// Create validates and stores a new link. Host is derived from the URL once
// here and never recomputed.
func (s *LinkService) Create(ctx context.Context, ownerID string, input CreateLinkInput) (*models.Link, error) {
	host, err := parseHost(input.URL)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		URL:     input.URL,
		Title:   input.URL,
		Host:    host,
	}
	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.Notes != nil {
		link.Notes = *input.Notes
	}

	return s.repomanager.Links(s.db).Create(ctx, link)
}

// List returns the owner's links, newest-created first. A blank (post-trim)
// search term is treated as no search at all.
func (s *LinkService) List(ctx context.Context, ownerID string, q ListQuery) ([]*models.Link, error) {
	f := links.Filter{
		OwnerID:  ownerID,
		Archived: q.Archived,
		Search:   strings.TrimSpace(q.Search),
	}

	result, err := s.repomanager.Links(s.db).Select(ctx, f)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*models.Link{}
	}
	return result, nil
}

// Get fetches one link. A link owned by someone else is reported exactly
// like a nonexistent one.
func (s *LinkService) Get(ctx context.Context, ownerID, id string) (*models.Link, error) {
	return s.repomanager.Links(s.db).Get(ctx, ownerID, id)
}

// Update overwrites only the supplied fields after re-validating ownership.
func (s *LinkService) Update(ctx context.Context, ownerID, id string, input UpdateLinkInput) (*models.Link, error) {
	repo := s.repomanager.Links(s.db)

	link, err := repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if input.Title == nil && input.Notes == nil {
		return link, nil
	}

	return repo.UpdateFields(ctx, ownerID, id, input.Title, input.Notes)
}

// Archive stamps the link with the current time.
func (s *LinkService) Archive(ctx context.Context, ownerID, id string) (*models.Link, error) {
	now := time.Now()
	return s.repomanager.Links(s.db).SetArchived(ctx, ownerID, id, &now)
}

// Unarchive clears the archive timestamp.
func (s *LinkService) Unarchive(ctx context.Context, ownerID, id string) (*models.Link, error) {
	return s.repomanager.Links(s.db).SetArchived(ctx, ownerID, id, nil)
}

// Remove deletes the link after the owner-scoped lookup built into the
// delete statement.
func (s *LinkService) Remove(ctx context.Context, ownerID, id string) error {
	return s.repomanager.Links(s.db).Delete(ctx, ownerID, id)
}

// GetRandom selects uniformly among the owner's links in the given archive
// state: count the matching rows, draw an index, fetch the single row at
// that offset under a fixed creation-time-ascending ordering. The two
// queries run without a transaction, so a concurrent insert or delete
// between them can skip or shift the selected row; that race is tolerated
// as best-effort sampling. Returns nil when no link matches.
func (s *LinkService) GetRandom(ctx context.Context, ownerID string, archived bool) (*models.Link, error) {
	repo := s.repomanager.Links(s.db)
	f := links.Filter{OwnerID: ownerID, Archived: &archived}

	n, err := repo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	link, err := repo.SelectAtOffset(ctx, f, randIntN(n))
	if err != nil {
		// a row vanished between count and fetch
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}
