package repomanager

import (
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/server/migrations"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	sqlManager
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{sqlManager{
		dialect:      dbx.DialectPostgres,
		gooseDialect: "pgx",
		dir:          migrations.PostgresDir,
	}}
}
