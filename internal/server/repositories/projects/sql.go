package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

const selectProjects = `SELECT p.id, p.name, p.description, p.created_at, p.updated_at, COUNT(s.id)
	FROM projects p
	LEFT JOIN scans s ON s.project_id = p.id`

const groupProjects = ` GROUP BY p.id, p.name, p.description, p.created_at, p.updated_at`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProjects+groupProjects+` ORDER BY p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.ScanCount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return r.getOne(ctx, selectProjects+` WHERE p.id = ?`+groupProjects, id)
}

func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return r.getOne(ctx, selectProjects+` WHERE p.name = ?`+groupProjects, name)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.Project, error) {
	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.ScanCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := r.dialect.Rebind(
		`INSERT INTO projects (name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`)

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, now, now).Scan(&p.ID); err != nil {
		return nil, dbx.WrapError(err)
	}
	return p, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, patch models.ProjectPatch) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullIfEmpty(*patch.Description))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.dialect.Rebind(`UPDATE projects SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	return execOne(ctx, r.db, query, args...)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, r.dialect.Rebind(`DELETE FROM projects WHERE id = ?`), id)
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, db dbx.DBTX, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbx.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
