// Package repomanager wires repositories to database handles. Services ask
// the manager for a repository bound either to the shared *sql.DB or to a
// transaction started with dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/lakelandsports/cms/internal/dbx"
	"github.com/lakelandsports/cms/internal/server/repositories/accounts"
	"github.com/lakelandsports/cms/internal/server/repositories/posts"
	"github.com/lakelandsports/cms/internal/server/repositories/settings"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Accounts(db dbx.DBTX) accounts.Repository
	Settings(db dbx.DBTX) settings.Repository
	Posts(db dbx.DBTX) posts.Repository
}
