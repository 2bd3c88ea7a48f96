package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/dbx"
	"github.com/ymatrosov/linkstash/internal/server/models"
)

const linkColumns = "id, user_id, url, title, host, notes, archived_at, created_at, updated_at"

// likeEscaper neutralizes LIKE wildcards in user-supplied search terms.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresRepository implements link storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// whereClause compiles f into a WHERE clause and its arguments. The owner
// predicate is always first; archive state and search are appended when set.
func whereClause(f Filter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.OwnerID}

	if f.Archived != nil {
		if *f.Archived {
			conds = append(conds, "archived_at IS NOT NULL")
		} else {
			conds = append(conds, "archived_at IS NULL")
		}
	}

	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(title ILIKE $%d ESCAPE '\' OR url ILIKE $%d ESCAPE '\' OR host ILIKE $%d ESCAPE '\' OR notes ILIKE $%d ESCAPE '\')`,
			n, n, n, n))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) Create(ctx context.Context, link *models.Link) (*models.Link, error) {
	query :=
		`INSERT INTO links (id, user_id, url, title, host, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		link.ID, link.OwnerID, link.URL, link.Title, link.Host, link.Notes).
		Scan(&link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}

func (r *PostgresRepository) Select(ctx context.Context, f Filter) ([]*models.Link, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(
		`SELECT %s FROM links %s ORDER BY created_at DESC`, linkColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Link, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM links WHERE id = $1 AND user_id = $2`, linkColumns)

	return scanLinkRow(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, ownerID, id string, title, notes *string) (*models.Link, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id, ownerID}

	if title != nil {
		args = append(args, *title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if notes != nil {
		args = append(args, *notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE links SET %s WHERE id = $1 AND user_id = $2 RETURNING %s`,
		strings.Join(sets, ", "), linkColumns)

	return scanLinkRow(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) SetArchived(ctx context.Context, ownerID, id string, archivedAt *time.Time) (*models.Link, error) {
	query := fmt.Sprintf(
		`UPDATE links SET archived_at = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING %s`, linkColumns)

	var ts sql.NullTime
	if archivedAt != nil {
		ts = sql.NullTime{Time: *archivedAt, Valid: true}
	}

	return scanLinkRow(r.db.QueryRowContext(ctx, query, id, ownerID, ts))
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM links WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE user_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f)
	query := fmt.Sprintf(`SELECT count(*) FROM links %s`, where)

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// SelectAtOffset orders by created_at ascending so that an offset drawn
// against Count addresses a stable row between the two queries.
func (r *PostgresRepository) SelectAtOffset(ctx context.Context, f Filter, offset int) (*models.Link, error) {
	where, args := whereClause(f)
	args = append(args, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM links %s ORDER BY created_at ASC LIMIT 1 OFFSET $%d`,
		linkColumns, where, len(args))

	return scanLinkRow(r.db.QueryRowContext(ctx, query, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(s scanner) (*models.Link, error) {
	link := &models.Link{}
	var archivedAt sql.NullTime
	err := s.Scan(&link.ID, &link.OwnerID, &link.URL, &link.Title, &link.Host,
		&link.Notes, &archivedAt, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		link.ArchivedAt = &t
	}
	return link, nil
}

func scanLinkRow(row *sql.Row) (*models.Link, error) {
	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return link, nil
}
