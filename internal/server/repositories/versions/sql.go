package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

const selectVersions = `SELECT id, scan_id, version_number, file_path, file_size, change_notes, created_at
	FROM scan_versions`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, v *models.ScanVersion) (*models.ScanVersion, error) {
	query := r.dialect.Rebind(
		`INSERT INTO scan_versions (scan_id, version_number, file_path, file_size, change_notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`)

	v.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowContext(ctx, query,
		v.ScanID, v.VersionNumber, v.FilePath, v.FileSize, v.ChangeNotes, v.CreatedAt).Scan(&v.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) ListByScanID(ctx context.Context, scanID int64) ([]models.ScanVersion, error) {
	query := r.dialect.Rebind(selectVersions + ` WHERE scan_id = ? ORDER BY version_number DESC`)

	rows, err := r.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ScanVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetByNumber(ctx context.Context, scanID int64, number int) (*models.ScanVersion, error) {
	query := r.dialect.Rebind(selectVersions + ` WHERE scan_id = ? AND version_number = ?`)

	v, err := scanVersion(r.db.QueryRowContext(ctx, query, scanID, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) MaxVersionNumber(ctx context.Context, scanID int64) (int, error) {
	query := r.dialect.Rebind(`SELECT COALESCE(MAX(version_number), 0) FROM scan_versions WHERE scan_id = ?`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, scanID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.ScanVersion, error) {
	v := &models.ScanVersion{}
	err := row.Scan(&v.ID, &v.ScanID, &v.VersionNumber, &v.FilePath, &v.FileSize, &v.ChangeNotes, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}
