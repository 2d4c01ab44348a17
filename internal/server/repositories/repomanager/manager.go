package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/videos"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services decide the transaction boundary.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Videos(db dbx.DBTX) videos.Repository
}
