// Package tags persists the shared tag vocabulary and the tags attached to
// each scan.
package tags

import (
	"context"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	Create(ctx context.Context, t *models.Tag) (*models.Tag, error)
	Update(ctx context.Context, id int64, patch models.TagPatch) error
	Delete(ctx context.Context, id int64) error

	// ListByScanIDs returns the tags of every given scan keyed by scan id,
	// each slice ordered by tag name.
	ListByScanIDs(ctx context.Context, scanIDs []int64) (map[int64][]models.Tag, error)
	// CountExisting returns how many of ids name an existing tag.
	CountExisting(ctx context.Context, ids []int64) (int, error)
}
