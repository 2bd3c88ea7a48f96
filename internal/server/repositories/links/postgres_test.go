package links

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ymatrosov/linkstash/internal/common"
	"github.com/ymatrosov/linkstash/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func testTime(t *testing.T) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2025-06-01T12:00:00Z")
	if err != nil {
		t.Fatalf("time.Parse error: %v", err)
	}
	return ts
}

func linkRows(t *testing.T, archivedAt any) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"id", "user_id", "url", "title", "host", "notes", "archived_at", "created_at", "updated_at"}).
		AddRow("l-1", "u-1", "https://example.com/path", "Example", "example.com", "", archivedAt, testTime(t), testTime(t))
}

func boolPtr(b bool) *bool { return &b }

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		f         Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "owner only",
			f:         Filter{OwnerID: "u-1"},
			wantWhere: `WHERE user_id = $1`,
			wantArgs:  []any{"u-1"},
		},
		{
			name:      "archived",
			f:         Filter{OwnerID: "u-1", Archived: boolPtr(true)},
			wantWhere: `WHERE user_id = $1 AND archived_at IS NOT NULL`,
			wantArgs:  []any{"u-1"},
		},
		{
			name:      "unarchived",
			f:         Filter{OwnerID: "u-1", Archived: boolPtr(false)},
			wantWhere: `WHERE user_id = $1 AND archived_at IS NULL`,
			wantArgs:  []any{"u-1"},
		},
		{
			name:      "search",
			f:         Filter{OwnerID: "u-1", Search: "exam"},
			wantWhere: `WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR url ILIKE $2 ESCAPE '\' OR host ILIKE $2 ESCAPE '\' OR notes ILIKE $2 ESCAPE '\')`,
			wantArgs:  []any{"u-1", "%exam%"},
		},
		{
			name:      "search escapes wildcards",
			f:         Filter{OwnerID: "u-1", Search: "100%_done"},
			wantWhere: `WHERE user_id = $1 AND (title ILIKE $2 ESCAPE '\' OR url ILIKE $2 ESCAPE '\' OR host ILIKE $2 ESCAPE '\' OR notes ILIKE $2 ESCAPE '\')`,
			wantArgs:  []any{"u-1", `%100\%\_done%`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			where, args := whereClause(tc.f)
			if where != tc.wantWhere {
				t.Fatalf("where mismatch:\ngot  %s\nwant %s", where, tc.wantWhere)
			}
			if len(args) != len(tc.wantArgs) {
				t.Fatalf("args mismatch: got %v want %v", args, tc.wantArgs)
			}
			for i := range args {
				if args[i] != tc.wantArgs[i] {
					t.Fatalf("arg %d mismatch: got %v want %v", i, args[i], tc.wantArgs[i])
				}
			}
		})
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+links\s*\(id,\s*user_id,\s*url,\s*title,\s*host,\s*notes\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

	rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testTime(t), testTime(t))
	mock.ExpectQuery(q).
		WithArgs("l-1", "u-1", "https://example.com/path", "Example", "example.com", "").
		WillReturnRows(rows)

	link := &models.Link{ID: "l-1", OwnerID: "u-1", URL: "https://example.com/path", Title: "Example", Host: "example.com"}
	got, err := repo.Create(context.Background(), link)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated")
	}
}

func TestSelect_OrdersNewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*\s+FROM\s+links\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`).
		WithArgs("u-1").
		WillReturnRows(linkRows(t, nil))

	got, err := repo.Select(context.Background(), Filter{OwnerID: "u-1"})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "l-1" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].ArchivedAt != nil {
		t.Fatalf("expected nil ArchivedAt for NULL column")
	}
}

func TestSelect_ScansArchivedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+links`).
		WithArgs("u-1").
		WillReturnRows(linkRows(t, testTime(t)))

	got, err := repo.Select(context.Background(), Filter{OwnerID: "u-1", Archived: boolPtr(true)})
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if len(got) != 1 || got[0].ArchivedAt == nil || !got[0].ArchivedAt.Equal(testTime(t)) {
		t.Fatalf("unexpected result: %+v", got[0])
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+links\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("l-missing", "u-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1", "l-missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestUpdateFields_OnlyTitle(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	title := "New"
	mock.ExpectQuery(`(?s)UPDATE\s+links\s+SET\s+updated_at\s*=\s*now\(\),\s*title\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("l-1", "u-1", "New").
		WillReturnRows(linkRows(t, nil))

	got, err := repo.UpdateFields(context.Background(), "u-1", "l-1", &title, nil)
	if err != nil {
		t.Fatalf("UpdateFields error: %v", err)
	}
	if got.ID != "l-1" {
		t.Fatalf("unexpected link: %+v", got)
	}
}

func TestSetArchived_StoresTimestamp(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := testTime(t)
	mock.ExpectQuery(`(?s)UPDATE\s+links\s+SET\s+archived_at\s*=\s*\$3`).
		WithArgs("l-1", "u-1", sqlmock.AnyArg()).
		WillReturnRows(linkRows(t, now))

	got, err := repo.SetArchived(context.Background(), "u-1", "l-1", &now)
	if err != nil {
		t.Fatalf("SetArchived error: %v", err)
	}
	if got.ArchivedAt == nil {
		t.Fatalf("expected ArchivedAt to be set")
	}
}

func TestDelete_NotOwned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+links\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("l-1", "u-other").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "u-other", "l-1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+links\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+archived_at\s+IS\s+NULL`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), Filter{OwnerID: "u-1", Archived: boolPtr(false)})
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestSelectAtOffset_UsesAscOrdering(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*\s+FROM\s+links\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+archived_at\s+IS\s+NULL\s+ORDER\s+BY\s+created_at\s+ASC\s+LIMIT\s+1\s+OFFSET\s+\$2`).
		WithArgs("u-1", 3).
		WillReturnRows(linkRows(t, nil))

	got, err := repo.SelectAtOffset(context.Background(), Filter{OwnerID: "u-1", Archived: boolPtr(false)}, 3)
	if err != nil {
		t.Fatalf("SelectAtOffset error: %v", err)
	}
	if got.ID != "l-1" {
		t.Fatalf("unexpected link: %+v", got)
	}
}
