// Package scans persists scan catalog entries and their tag links.
package scans

import (
	"context"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Scan) (*models.Scan, error)
	// GetByID returns the scan with its project name filled in. Ownership
	// is checked by the caller.
	GetByID(ctx context.Context, id int64) (*models.Scan, error)
	List(ctx context.Context, f models.ScanFilter) ([]models.Scan, error)
	Count(ctx context.Context, f models.ScanFilter) (int64, error)
	// ObjectNameTaken reports whether userID already has a scan called
	// name, ignoring the scan excludeID (0 for none).
	ObjectNameTaken(ctx context.Context, userID int64, name string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, patch *models.ScanPatch) error
	SetCurrentVersion(ctx context.Context, id int64, version int) error
	// SetTags replaces the scan's tag links with tagIDs.
	SetTags(ctx context.Context, scanID int64, tagIDs []int64) error
	Delete(ctx context.Context, id int64) error
}
