package repomanager

import (
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/server/migrations"
)

// SQLiteRepositoryManager vends repositories over an embedded SQLite file.
type SQLiteRepositoryManager struct {
	sqlManager
}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{sqlManager{
		dialect:      dbx.DialectSQLite,
		gooseDialect: "sqlite3",
		dir:          migrations.SQLiteDir,
	}}
}
