package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/scanvault/internal/common"
)

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(errors.Join(errors.New("ctx"), err)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestWrapError_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE t (name TEXT UNIQUE)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t (name) VALUES ('a')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO t (name) VALUES ('a')`)
	require.Error(t, err)
	assert.ErrorIs(t, WrapError(err), common.ErrorAlreadyExists)

	_, err = db.ExecContext(ctx, `INSERT INTO missing (x) VALUES (1)`)
	require.Error(t, err)
	wrapped := WrapError(err)
	assert.NotErrorIs(t, wrapped, common.ErrorAlreadyExists)
	assert.Contains(t, wrapped.Error(), "db error")
}
