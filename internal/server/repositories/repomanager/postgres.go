// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/vidkeeper/internal/dbx"
	"github.com/dmitrijs2005/vidkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/videos"
)

type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Videos returns a videos.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Videos(db dbx.DBTX) videos.Repository {
	return videos.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.Code("MIGRATION_FAILED").Wrapf(err, "set dialect")
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return oops.Code("MIGRATION_FAILED").Wrapf(err, "apply migrations")
	}
	return nil
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
