package scans

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

const selectScans = `SELECT s.id, s.filename, s.object_name, s.scan_date, s.notes, s.scanner_model,
	s.resolution, s.accuracy, s.file_path, s.file_format, s.file_size, s.thumbnail_path,
	s.current_version, s.project_id, p.name, s.user_id, s.created_by, s.created_at, s.updated_at
	FROM scans s
	LEFT JOIN projects p ON p.id = s.project_id`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.Scan) (*models.Scan, error) {
	query := r.dialect.Rebind(
		`INSERT INTO scans (filename, object_name, scan_date, notes, scanner_model, resolution, accuracy,
		 file_path, file_format, file_size, thumbnail_path, current_version, project_id, user_id,
		 created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`)

	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.CurrentVersion == 0 {
		s.CurrentVersion = 1
	}

	err := r.db.QueryRowContext(ctx, query,
		s.Filename, s.ObjectName, s.ScanDate, s.Notes, s.ScannerModel, s.Resolution, s.Accuracy,
		s.FilePath, s.FileFormat, s.FileSize, s.ThumbnailPath, s.CurrentVersion, s.ProjectID, s.UserID,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Scan, error) {
	query := r.dialect.Rebind(selectScans + ` WHERE s.id = ?`)

	s, err := scanScan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) List(ctx context.Context, f models.ScanFilter) ([]models.Scan, error) {
	where, args := filterClause(f)
	query := r.dialect.Rebind(selectScans + where + ` ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Scan, 0)
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context, f models.ScanFilter) (int64, error) {
	where, args := filterClause(f)
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM scans s` + where)

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) ObjectNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM scans WHERE user_id = ? AND object_name = ? AND id <> ?`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, userID, name, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, p *models.ScanPatch) error {
	sets := make([]string, 0, 11)
	args := make([]any, 0, 12)

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	setText := func(column string, value *string) {
		if value != nil {
			set(column, nullIfEmpty(*value))
		}
	}

	if p.Filename != nil {
		set("filename", *p.Filename)
	}
	if p.ObjectName != nil {
		set("object_name", *p.ObjectName)
	}
	setText("scan_date", p.ScanDate)
	setText("notes", p.Notes)
	setText("scanner_model", p.ScannerModel)
	setText("resolution", p.Resolution)
	setText("accuracy", p.Accuracy)
	setText("thumbnail_path", p.ThumbnailPath)
	setText("created_by", p.CreatedBy)
	if p.ProjectID != nil {
		if *p.ProjectID > 0 {
			set("project_id", *p.ProjectID)
		} else {
			set("project_id", nil)
		}
	}
	set("updated_at", time.Now().UTC())
	args = append(args, id)

	query := r.dialect.Rebind(`UPDATE scans SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	return r.execOne(ctx, query, args...)
}

func (r *SQLRepository) SetCurrentVersion(ctx context.Context, id int64, version int) error {
	query := r.dialect.Rebind(`UPDATE scans SET current_version = ?, updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, query, version, time.Now().UTC(), id)
}

func (r *SQLRepository) SetTags(ctx context.Context, scanID int64, tagIDs []int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM scan_tags WHERE scan_id = ?`), scanID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil
	}

	values := make([]string, len(ids))
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		values[i] = "(?, ?)"
		args = append(args, scanID, id)
	}

	query := r.dialect.Rebind(`INSERT INTO scan_tags (scan_id, tag_id) VALUES ` + strings.Join(values, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	return r.execOne(ctx, r.dialect.Rebind(`DELETE FROM scans WHERE id = ?`), id)
}

func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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

// filterClause builds the WHERE clause shared by List and Count.
func filterClause(f models.ScanFilter) (string, []any) {
	conds := []string{"s.user_id = ?"}
	args := []any{f.UserID}

	if f.ProjectID != nil {
		conds = append(conds, "s.project_id = ?")
		args = append(args, *f.ProjectID)
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conds = append(conds, `(LOWER(s.object_name) LIKE ? ESCAPE '\'`+
			` OR LOWER(s.filename) LIKE ? ESCAPE '\'`+
			` OR LOWER(COALESCE(s.notes, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScan(row rowScanner) (*models.Scan, error) {
	s := &models.Scan{}
	err := row.Scan(&s.ID, &s.Filename, &s.ObjectName, &s.ScanDate, &s.Notes, &s.ScannerModel,
		&s.Resolution, &s.Accuracy, &s.FilePath, &s.FileFormat, &s.FileSize, &s.ThumbnailPath,
		&s.CurrentVersion, &s.ProjectID, &s.ProjectName, &s.UserID, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Tags = []models.Tag{}
	return s, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
