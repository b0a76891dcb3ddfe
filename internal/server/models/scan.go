package models

import "time"

// Scan is a catalog entry for one 3D model file. FilePath, FileFormat,
// FileSize and UserID are fixed at creation.
type Scan struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	ObjectName     string    `json:"object_name"`
	ScanDate       *string   `json:"scan_date"`
	Notes          *string   `json:"notes"`
	ScannerModel   *string   `json:"scanner_model"`
	Resolution     *string   `json:"resolution"`
	Accuracy       *string   `json:"accuracy"`
	FilePath       string    `json:"file_path"`
	FileFormat     string    `json:"file_format"`
	FileSize       int64     `json:"file_size"`
	ThumbnailPath  *string   `json:"thumbnail_path"`
	CurrentVersion int       `json:"current_version"`
	ProjectID      *int64    `json:"project_id"`
	ProjectName    *string   `json:"project_name"`
	UserID         *int64    `json:"user_id"`
	CreatedBy      *string   `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Tags     []Tag         `json:"tags"`
	Versions []ScanVersion `json:"versions,omitempty"`
}

// OwnedBy reports whether userID owns the scan.
func (s *Scan) OwnedBy(userID int64) bool {
	return s.UserID != nil && *s.UserID == userID
}

// ScanPatch is a partial update. A nil field is left unchanged.
type ScanPatch struct {
	Filename      *string
	ObjectName    *string
	ScanDate      *string
	Notes         *string
	ScannerModel  *string
	Resolution    *string
	Accuracy      *string
	ThumbnailPath *string
	ProjectID     *int64
	CreatedBy     *string
	// TagIDs replaces the scan's tags when non-nil.
	TagIDs *[]int64
}

// Empty reports whether the patch touches no scan column.
func (p *ScanPatch) Empty() bool {
	return p.Filename == nil && p.ObjectName == nil && p.ScanDate == nil && p.Notes == nil &&
		p.ScannerModel == nil && p.Resolution == nil && p.Accuracy == nil &&
		p.ThumbnailPath == nil && p.ProjectID == nil && p.CreatedBy == nil
}

// ScanFilter selects one page of an owner's scans.
type ScanFilter struct {
	UserID    int64
	ProjectID *int64
	Search    string
	Limit     int
	Offset    int
}

type ScanPage struct {
	Scans  []Scan
	Total  int64
	Limit  int
	Offset int
}
