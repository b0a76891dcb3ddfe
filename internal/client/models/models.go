// Package models holds the client-side view of the scanvault API
// resources, decoded from the server's JSON responses.
package models

import "time"

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	UsageCount int64     `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ScanCount   int64     `json:"scan_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Version struct {
	VersionNumber int       `json:"version_number"`
	FileSize      int64     `json:"file_size"`
	ChangeNotes   *string   `json:"change_notes"`
	CreatedAt     time.Time `json:"created_at"`
}

type Scan struct {
	ID             int64     `json:"id"`
	Filename       string    `json:"filename"`
	ObjectName     string    `json:"object_name"`
	ScanDate       *string   `json:"scan_date"`
	Notes          *string   `json:"notes"`
	ScannerModel   *string   `json:"scanner_model"`
	Resolution     *string   `json:"resolution"`
	Accuracy       *string   `json:"accuracy"`
	FileFormat     string    `json:"file_format"`
	FileSize       int64     `json:"file_size"`
	ThumbnailPath  *string   `json:"thumbnail_path"`
	CurrentVersion int       `json:"current_version"`
	ProjectID      *int64    `json:"project_id"`
	ProjectName    *string   `json:"project_name"`
	CreatedBy      *string   `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Tags           []Tag     `json:"tags"`
	Versions       []Version `json:"versions"`
}

// TagNames returns the names of the scan's tags.
func (s *Scan) TagNames() []string {
	names := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		names[i] = t.Name
	}
	return names
}

type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type ScanPage struct {
	Data       []Scan     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
