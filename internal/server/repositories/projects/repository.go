// Package projects persists the groups scans can be filed under. Projects
// are shared by all users.
package projects

import (
	"context"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, id int64, patch models.ProjectPatch) error
	Delete(ctx context.Context, id int64) error
}
