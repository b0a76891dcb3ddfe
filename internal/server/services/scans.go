package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/dbx"
	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
	"github.com/dmitrijs2005/scanvault/internal/validation"
)

// AllowedFormats are the accepted scan file extensions.
var AllowedFormats = []string{"stl", "ply", "step", "stp", "iges", "igs", "obj"}

const (
	initialChangeNotes = "Initial upload"
	scanContentType    = "application/octet-stream"
)

// CreateScanInput describes a new scan. Blank optional fields are stored
// as NULL; a blank ObjectName defaults to the file name without extension.
type CreateScanInput struct {
	File         Upload
	Thumbnail    *Upload
	ObjectName   string
	ScanDate     string
	Notes        string
	ScannerModel string
	Resolution   string
	Accuracy     string
	CreatedBy    string
	ProjectID    *int64
	TagIDs       []int64
}

// scanFields are the columns checked before anything is stored.
type scanFields struct {
	Filename     string  `json:"filename" validate:"notblank,max=255"`
	ObjectName   string  `json:"object_name" validate:"notblank,max=255"`
	FilePath     string  `json:"file_path" validate:"required"`
	FileFormat   string  `json:"file_format" validate:"required"`
	FileSize     int64   `json:"file_size" validate:"gt=0"`
	ScanDate     *string `json:"scan_date" validate:"omitempty,datetime=2006-01-02"`
	ScannerModel *string `json:"scanner_model" validate:"omitempty,max=255"`
	Resolution   *string `json:"resolution" validate:"omitempty,max=255"`
	Accuracy     *string `json:"accuracy" validate:"omitempty,max=255"`
	CreatedBy    *string `json:"created_by" validate:"omitempty,max=255"`
}

// Blob is an opened scan payload together with the name it is served as.
type Blob struct {
	*storage.Object
	Filename string
}

// ScanService manages the scan catalog and the files behind it.
type ScanService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gateway     storage.Gateway
	logger      logging.Logger
}

func NewScanService(db *sql.DB, m repomanager.RepositoryManager, g storage.Gateway, logger logging.Logger) *ScanService {
	return &ScanService{db: db, repomanager: m, gateway: g, logger: logger.With("module", "scans")}
}

// fileFormat returns the lower-case extension of name if it is allowed.
func fileFormat(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, f := range AllowedFormats {
		if f == ext {
			return ext, nil
		}
	}
	return "", validation.Errorf("invalid file format. Allowed: %s", strings.Join(AllowedFormats, ", "))
}

func (s *ScanService) List(ctx context.Context, f models.ScanFilter) (*models.ScanPage, error) {
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)
	f.Search = strings.TrimSpace(f.Search)

	repo := s.repomanager.Scans(s.db)
	items, err := repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	total, err := repo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}
	if err := s.attachTags(ctx, s.db, items); err != nil {
		return nil, err
	}

	return &models.ScanPage{Scans: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Get returns a scan of userID with its tags and versions, newest first.
func (s *ScanService) Get(ctx context.Context, userID, id int64) (*models.Scan, error) {
	scan, err := s.owned(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}

	items := []models.Scan{*scan}
	if err := s.attachTags(ctx, s.db, items); err != nil {
		return nil, err
	}
	scan = &items[0]

	versions, err := s.repomanager.Versions(s.db).ListByScanID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	scan.Versions = versions
	return scan, nil
}

func (s *ScanService) Create(ctx context.Context, userID int64, in CreateScanInput) (*models.Scan, error) {
	filename := filepath.Base(strings.TrimSpace(in.File.Filename))
	ext, err := fileFormat(filename)
	if err != nil {
		return nil, err
	}

	objectName := strings.TrimSpace(in.ObjectName)
	if objectName == "" {
		objectName = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	key := storage.ScanKey(userID, ext)
	fields := scanFields{
		Filename:     filename,
		ObjectName:   objectName,
		FilePath:     key,
		FileFormat:   strings.ToUpper(ext),
		FileSize:     in.File.Size,
		ScanDate:     optional(in.ScanDate),
		ScannerModel: optional(in.ScannerModel),
		Resolution:   optional(in.Resolution),
		Accuracy:     optional(in.Accuracy),
		CreatedBy:    optional(in.CreatedBy),
	}
	if err := validation.Struct(&fields); err != nil {
		return nil, err
	}

	projectID := in.ProjectID
	if projectID != nil && *projectID <= 0 {
		projectID = nil
	}
	tagIDs := uniqueIDs(in.TagIDs)
	if err := s.checkReferences(ctx, s.db, projectID, tagIDs); err != nil {
		return nil, err
	}
	if err := s.checkObjectName(ctx, s.db, userID, objectName, 0); err != nil {
		return nil, err
	}

	var thumb *preparedUpload
	if in.Thumbnail != nil {
		if thumb, err = prepareThumbnail(userID, in.Thumbnail); err != nil {
			return nil, err
		}
	}

	if err := s.gateway.Put(ctx, key, in.File.Body, in.File.Size, scanContentType); err != nil {
		return nil, fmt.Errorf("store scan file: %w", err)
	}
	stored := []string{key}

	var thumbPath *string
	if thumb != nil {
		if err := s.gateway.Put(ctx, thumb.key, thumb.body, thumb.size, thumb.contentType); err != nil {
			s.removeBlobs(ctx, stored)
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		stored = append(stored, thumb.key)
		thumbPath = &thumb.key
	}

	owner := userID
	scan := &models.Scan{
		Filename:      filename,
		ObjectName:    objectName,
		ScanDate:      fields.ScanDate,
		Notes:         optional(in.Notes),
		ScannerModel:  fields.ScannerModel,
		Resolution:    fields.Resolution,
		Accuracy:      fields.Accuracy,
		FilePath:      key,
		FileFormat:    fields.FileFormat,
		FileSize:      in.File.Size,
		ThumbnailPath: thumbPath,
		ProjectID:     projectID,
		UserID:        &owner,
		CreatedBy:     fields.CreatedBy,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Scans(tx).Create(ctx, scan); err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		notes := initialChangeNotes
		if _, err := s.repomanager.Versions(tx).Create(ctx, &models.ScanVersion{
			ScanID:        scan.ID,
			VersionNumber: 1,
			FilePath:      key,
			FileSize:      in.File.Size,
			ChangeNotes:   &notes,
		}); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		if len(tagIDs) > 0 {
			if err := s.repomanager.Scans(tx).SetTags(ctx, scan.ID, tagIDs); err != nil {
				return fmt.Errorf("set tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.removeBlobs(ctx, stored)
		return nil, err
	}

	s.logger.Info(ctx, "scan created", "scan_id", scan.ID, "user_id", userID, "size", in.File.Size)
	return s.Get(ctx, userID, scan.ID)
}

// Update applies patch to a scan of userID. TagIDs, when set, replace the
// scan's tags.
func (s *ScanService) Update(ctx context.Context, userID, id int64, patch models.ScanPatch) (*models.Scan, error) {
	if _, err := s.owned(ctx, s.db, userID, id); err != nil {
		return nil, err
	}

	patch.Filename = trimPtr(patch.Filename)
	patch.ObjectName = trimPtr(patch.ObjectName)
	patch.ScanDate = trimPtr(patch.ScanDate)
	// thumbnails are replaced through SetThumbnail only
	patch.ThumbnailPath = nil

	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	var tagIDs []int64
	if patch.TagIDs != nil {
		tagIDs = uniqueIDs(*patch.TagIDs)
	}
	var projectID *int64
	if patch.ProjectID != nil && *patch.ProjectID > 0 {
		projectID = patch.ProjectID
	}
	if err := s.checkReferences(ctx, s.db, projectID, tagIDs); err != nil {
		return nil, err
	}
	if patch.ObjectName != nil {
		if err := s.checkObjectName(ctx, s.db, userID, *patch.ObjectName, id); err != nil {
			return nil, err
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Scans(tx)
		if err := repo.Update(ctx, id, &patch); err != nil {
			return fmt.Errorf("update scan: %w", err)
		}
		if patch.TagIDs != nil {
			if err := repo.SetTags(ctx, id, tagIDs); err != nil {
				return fmt.Errorf("set tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, id)
}

func validatePatch(p *models.ScanPatch) error {
	type patchFields struct {
		Filename   *string `json:"filename" validate:"omitempty,notblank,max=255"`
		ObjectName *string `json:"object_name" validate:"omitempty,notblank,max=255"`
		ScanDate   *string `json:"scan_date" validate:"omitempty,datetime=2006-01-02"`
	}

	f := patchFields{Filename: p.Filename, ObjectName: p.ObjectName}
	if p.ScanDate != nil && *p.ScanDate != "" {
		f.ScanDate = p.ScanDate
	}
	if p.Filename != nil && *p.Filename == "" {
		return validation.Errorf("filename is required")
	}
	if p.ObjectName != nil && *p.ObjectName == "" {
		return validation.Errorf("object_name is required")
	}
	return validation.Struct(&f)
}

// UploadNewVersion stores file as the next version of a scan of userID.
// The number is one more than the highest existing version row, and the
// scan's current_version follows it.
func (s *ScanService) UploadNewVersion(ctx context.Context, userID, id int64, file Upload, changeNotes string) (*models.Scan, error) {
	if _, err := s.owned(ctx, s.db, userID, id); err != nil {
		return nil, err
	}

	ext, err := fileFormat(filepath.Base(file.Filename))
	if err != nil {
		return nil, err
	}
	if file.Size <= 0 {
		return nil, validation.Errorf("file is empty")
	}

	key := storage.ScanKey(userID, ext)
	if err := s.gateway.Put(ctx, key, file.Body, file.Size, scanContentType); err != nil {
		return nil, fmt.Errorf("store version file: %w", err)
	}

	var number int
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		versions := s.repomanager.Versions(tx)

		latest, err := versions.MaxVersionNumber(ctx, id)
		if err != nil {
			return fmt.Errorf("latest version: %w", err)
		}
		number = latest + 1

		notes := strings.TrimSpace(changeNotes)
		if notes == "" {
			notes = fmt.Sprintf("Version %d", number)
		}
		if _, err := versions.Create(ctx, &models.ScanVersion{
			ScanID:        id,
			VersionNumber: number,
			FilePath:      key,
			FileSize:      file.Size,
			ChangeNotes:   &notes,
		}); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		if err := s.repomanager.Scans(tx).SetCurrentVersion(ctx, id, number); err != nil {
			return fmt.Errorf("set current version: %w", err)
		}
		return nil
	})
	if err != nil {
		s.removeBlobs(ctx, []string{key})
		return nil, err
	}

	s.logger.Info(ctx, "scan version uploaded", "scan_id", id, "version", number, "size", file.Size)
	return s.Get(ctx, userID, id)
}

// SetThumbnail replaces the preview image of a scan of userID.
func (s *ScanService) SetThumbnail(ctx context.Context, userID, id int64, image Upload) (*models.Scan, error) {
	scan, err := s.owned(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}

	thumb, err := prepareThumbnail(userID, &image)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Put(ctx, thumb.key, thumb.body, thumb.size, thumb.contentType); err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	if err := s.repomanager.Scans(s.db).Update(ctx, id, &models.ScanPatch{ThumbnailPath: &thumb.key}); err != nil {
		s.removeBlobs(ctx, []string{thumb.key})
		return nil, fmt.Errorf("update scan: %w", err)
	}
	if scan.ThumbnailPath != nil {
		s.removeBlobs(ctx, []string{*scan.ThumbnailPath})
	}

	return s.Get(ctx, userID, id)
}

// Delete removes every blob of a scan of userID (failures are logged) and
// then the scan row; versions and tag links go with it.
func (s *ScanService) Delete(ctx context.Context, userID, id int64) error {
	scan, err := s.owned(ctx, s.db, userID, id)
	if err != nil {
		return err
	}

	versions, err := s.repomanager.Versions(s.db).ListByScanID(ctx, id)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}

	keys := []string{scan.FilePath}
	if scan.ThumbnailPath != nil {
		keys = append(keys, *scan.ThumbnailPath)
	}
	for _, v := range versions {
		keys = append(keys, v.FilePath)
	}
	s.removeBlobs(ctx, keys)

	if err := s.repomanager.Scans(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}

	s.logger.Info(ctx, "scan deleted", "scan_id", id, "user_id", userID)
	return nil
}

// OpenFile opens the current version's file of a scan. It does not check
// ownership.
func (s *ScanService) OpenFile(ctx context.Context, id int64) (*Blob, error) {
	scan, path, err := s.currentFile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, path, servedFilename(scan.Filename, path))
}

// OpenVersionFile opens the file of version number of a scan.
func (s *ScanService) OpenVersionFile(ctx context.Context, id int64, number int) (*Blob, error) {
	scan, err := s.repomanager.Scans(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.repomanager.Versions(s.db).GetByNumber(ctx, id, number)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, v.FilePath, versionFilename(servedFilename(scan.Filename, v.FilePath), number))
}

// OpenThumbnail opens the preview image of a scan.
func (s *ScanService) OpenThumbnail(ctx context.Context, id int64) (*Blob, error) {
	scan, err := s.repomanager.Scans(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if scan.ThumbnailPath == nil {
		return nil, common.ErrorNotFound
	}
	return s.open(ctx, *scan.ThumbnailPath, filepath.Base(*scan.ThumbnailPath))
}

// FileURL returns the storage URL of the current version's file.
func (s *ScanService) FileURL(ctx context.Context, id int64) (string, error) {
	_, path, err := s.currentFile(ctx, id)
	if err != nil {
		return "", err
	}
	return s.gateway.URL(path), nil
}

func (s *ScanService) currentFile(ctx context.Context, id int64) (*models.Scan, string, error) {
	scan, err := s.repomanager.Scans(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	v, err := s.repomanager.Versions(s.db).GetByNumber(ctx, id, scan.CurrentVersion)
	switch {
	case err == nil:
		return scan, v.FilePath, nil
	case errors.Is(err, common.ErrorNotFound):
		return scan, scan.FilePath, nil
	default:
		return nil, "", fmt.Errorf("current version: %w", err)
	}
}

func (s *ScanService) open(ctx context.Context, key, filename string) (*Blob, error) {
	obj, err := s.gateway.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "open blob", "key", key, "error", err)
		}
		return nil, err
	}
	return &Blob{Object: obj, Filename: filename}, nil
}

// servedFilename gives name the extension of the stored key, since a later
// version may use another format than the first upload. The original
// spelling is kept when only the case differs.
func servedFilename(name, key string) string {
	keyExt := filepath.Ext(key)
	ext := filepath.Ext(name)
	if keyExt == "" || strings.EqualFold(keyExt, ext) {
		return name
	}
	return strings.TrimSuffix(name, ext) + keyExt
}

// versionFilename turns "part.stl" into "part_v2.stl".
func versionFilename(name string, number int) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s_v%d%s", strings.TrimSuffix(name, ext), number, ext)
}

func (s *ScanService) owned(ctx context.Context, db dbx.DBTX, userID, id int64) (*models.Scan, error) {
	scan, err := s.repomanager.Scans(db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get scan: %w", err)
	}
	if !scan.OwnedBy(userID) {
		return nil, common.ErrorNotFound
	}
	return scan, nil
}

func (s *ScanService) attachTags(ctx context.Context, db dbx.DBTX, items []models.Scan) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	byScan, err := s.repomanager.Tags(db).ListByScanIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	for i := range items {
		if t, ok := byScan[items[i].ID]; ok {
			items[i].Tags = t
		}
	}
	return nil
}

func (s *ScanService) checkObjectName(ctx context.Context, db dbx.DBTX, userID int64, name string, excludeID int64) error {
	taken, err := s.repomanager.Scans(db).ObjectNameTaken(ctx, userID, name, excludeID)
	if err != nil {
		return fmt.Errorf("check object name: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: a scan named %q already exists", common.ErrorAlreadyExists, name)
	}
	return nil
}

// checkReferences turns dangling project and tag ids into validation errors.
func (s *ScanService) checkReferences(ctx context.Context, db dbx.DBTX, projectID *int64, tagIDs []int64) error {
	if projectID != nil {
		if _, err := s.repomanager.Projects(db).GetByID(ctx, *projectID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return validation.Errorf("project %d does not exist", *projectID)
			}
			return fmt.Errorf("get project: %w", err)
		}
	}

	if len(tagIDs) > 0 {
		n, err := s.repomanager.Tags(db).CountExisting(ctx, tagIDs)
		if err != nil {
			return fmt.Errorf("check tags: %w", err)
		}
		if n != len(tagIDs) {
			return validation.Errorf("unknown tag id in %v", tagIDs)
		}
	}
	return nil
}

// removeBlobs deletes keys best effort; duplicates are removed once.
func (s *ScanService) removeBlobs(ctx context.Context, keys []string) {
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if err := s.gateway.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "failed to delete blob", "key", key, "error", err)
		}
	}
}

type preparedUpload struct {
	key         string
	contentType string
	size        int64
	body        io.Reader
}

func prepareThumbnail(userID int64, u *Upload) (*preparedUpload, error) {
	if u.Size <= 0 {
		return nil, validation.Errorf("thumbnail is empty")
	}
	ct, body, err := storage.SniffContentType(u.Body)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if !storage.IsImage(ct) {
		return nil, validation.Errorf("thumbnail must be a PNG, JPEG, GIF or WebP image")
	}
	return &preparedUpload{
		key:         storage.ThumbnailKey(userID, storage.ExtensionFor(ct)),
		contentType: ct,
		size:        u.Size,
		body:        body,
	}, nil
}
