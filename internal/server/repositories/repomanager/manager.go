// Package repomanager wires repository constructors to a database handle
// and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ymatrosov/linkstash/internal/dbx"
	"github.com/ymatrosov/linkstash/internal/server/repositories/links"
	"github.com/ymatrosov/linkstash/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository code inside and outside transactions.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Links(db dbx.DBTX) links.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
