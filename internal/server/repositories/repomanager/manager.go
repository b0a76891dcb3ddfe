// Package repomanager vends repository implementations bound to a DBTX
// (a *sql.DB or a transaction) and runs the schema migrations for the
// configured database backend.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/server/config"
	"github.com/dmitrijs2005/scanvault/internal/server/migrations"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/projects"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/scans"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/tags"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/users"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/versions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Scans(db dbx.DBTX) scans.Repository
	Versions(db dbx.DBTX) versions.Repository
	Tags(db dbx.DBTX) tags.Repository
	Projects(db dbx.DBTX) projects.Repository
}

// sqlManager is shared by the dialect specific managers; they differ only
// in placeholder style and migration directory.
type sqlManager struct {
	dialect      dbx.Dialect
	gooseDialect string
	dir          string
}

func (m *sqlManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.dialect)
}

func (m *sqlManager) Scans(db dbx.DBTX) scans.Repository {
	return scans.NewSQLRepository(db, m.dialect)
}

func (m *sqlManager) Versions(db dbx.DBTX) versions.Repository {
	return versions.NewSQLRepository(db, m.dialect)
}

func (m *sqlManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewSQLRepository(db, m.dialect)
}

func (m *sqlManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *sqlManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(m.gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// New returns the RepositoryManager for driver (config.DriverPostgres or
// config.DriverSQLite).
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case config.DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	case config.DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects to the database described by driver and dsn, verifies the
// connection and returns it together with the matching manager.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	m, err := New(driver)
	if err != nil {
		return nil, nil, err
	}

	driverName := "pgx"
	if driver == config.DriverSQLite {
		driverName = "sqlite"
		dsn = SQLiteDSN(dsn)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// A single writer avoids SQLITE_BUSY; transactions run on that connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, m, nil
}

// SQLiteDSN adds the pragmas the schema relies on (foreign keys for the
// cascades) unless dsn already sets them.
func SQLiteDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
