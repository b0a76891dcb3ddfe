package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scanvault/internal/validation"
)

type ProjectInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type ProjectPatchInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ProjectService manages the project list shared by all users.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, logger: logger.With("module", "projects")}
}

func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.repomanager.Projects(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	return s.repomanager.Projects(s.db).GetByID(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{Name: in.Name, Description: optional(in.Description)})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Update renames or re-describes a project. An empty description clears it.
func (s *ProjectService) Update(ctx context.Context, id int64, in ProjectPatchInput) (*models.Project, error) {
	in.Name = trimPtr(in.Name)
	if in.Name != nil && *in.Name == "" {
		return nil, validation.Errorf("name is required")
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Projects(s.db)
	if _, err := repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := s.checkName(ctx, *in.Name, id); err != nil {
			return nil, err
		}
	}

	if err := repo.Update(ctx, id, models.ProjectPatch{Name: in.Name, Description: in.Description}); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return repo.GetByID(ctx, id)
}

// Delete removes the project; its scans stay, without a project.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Projects(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("delete project: %w", err)
	}
	s.logger.Info(ctx, "project deleted", "project_id", id)
	return nil
}

func (s *ProjectService) checkName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repomanager.Projects(s.db).GetByName(ctx, name)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup project: %w", err)
	case existing.ID != selfID:
		return fmt.Errorf("%w: project %q already exists", common.ErrorAlreadyExists, name)
	default:
		return nil
	}
}
