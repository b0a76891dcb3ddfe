// Package versions persists the immutable file history of scans.
package versions

import (
	"context"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.ScanVersion) (*models.ScanVersion, error)
	// ListByScanID returns the versions of a scan, newest first.
	ListByScanID(ctx context.Context, scanID int64) ([]models.ScanVersion, error)
	GetByNumber(ctx context.Context, scanID int64, number int) (*models.ScanVersion, error)
	// MaxVersionNumber returns the highest version number of a scan, or 0.
	MaxVersionNumber(ctx context.Context, scanID int64) (int, error)
}
