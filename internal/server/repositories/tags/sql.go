package tags

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

const selectTags = `SELECT t.id, t.name, t.color, t.created_at, COUNT(st.scan_id)
	FROM tags t
	LEFT JOIN scan_tags st ON st.tag_id = t.id`

const groupTags = ` GROUP BY t.id, t.name, t.color, t.created_at`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, selectTags+groupTags+` ORDER BY t.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	return r.getOne(ctx, selectTags+` WHERE t.id = ?`+groupTags, id)
}

func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return r.getOne(ctx, selectTags+` WHERE t.name = ?`+groupTags, name)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg any) (*models.Tag, error) {
	t := &models.Tag{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg).
		Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UsageCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	query := r.dialect.Rebind(
		`INSERT INTO tags (name, color, created_at)
		 VALUES (?, ?, ?)
		 RETURNING id`)

	if t.Color == "" {
		t.Color = models.DefaultTagColor
	}
	t.CreatedAt = time.Now().UTC()

	if err := r.db.QueryRowContext(ctx, query, t.Name, t.Color, t.CreatedAt).Scan(&t.ID); err != nil {
		return nil, dbx.WrapError(err)
	}
	return t, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, patch models.TagPatch) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *patch.Color)
	}
	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	args = append(args, id)

	query := r.dialect.Rebind(`UPDATE tags SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbx.WrapError(err)
	}
	return requireOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM tags WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOne(res)
}

func (r *SQLRepository) ListByScanIDs(ctx context.Context, scanIDs []int64) (map[int64][]models.Tag, error) {
	result := make(map[int64][]models.Tag, len(scanIDs))
	if len(scanIDs) == 0 {
		return result, nil
	}

	query := r.dialect.Rebind(
		`SELECT st.scan_id, t.id, t.name, t.color, t.created_at
		 FROM scan_tags st
		 JOIN tags t ON t.id = st.tag_id
		 WHERE st.scan_id IN (` + dbx.Placeholders(len(scanIDs)) + `)
		 ORDER BY t.name ASC`)

	rows, err := r.db.QueryContext(ctx, query, int64Args(scanIDs)...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scanID int64
		var t models.Tag
		if err := rows.Scan(&scanID, &t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[scanID] = append(result[scanID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := r.dialect.Rebind(`SELECT COUNT(*) FROM tags WHERE id IN (` + dbx.Placeholders(len(ids)) + `)`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, int64Args(ids)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
