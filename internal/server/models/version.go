package models

import "time"

// ScanVersion is an immutable historical file of a scan.
type ScanVersion struct {
	ID            int64     `json:"id"`
	ScanID        int64     `json:"scan_id"`
	VersionNumber int       `json:"version_number"`
	FilePath      string    `json:"file_path"`
	FileSize      int64     `json:"file_size"`
	ChangeNotes   *string   `json:"change_notes"`
	CreatedAt     time.Time `json:"created_at"`
}
