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

type TagInput struct {
	Name  string `json:"name" validate:"notblank,max=50"`
	Color string `json:"color" validate:"omitempty,rgbcolor"`
}

type TagPatchInput struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=50"`
	Color *string `json:"color" validate:"omitempty,rgbcolor"`
}

// TagService manages the tag vocabulary shared by all users.
type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewTagService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TagService {
	return &TagService{db: db, repomanager: m, logger: logger.With("module", "tags")}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repomanager.Tags(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	return s.repomanager.Tags(s.db).GetByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, in TagInput) (*models.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	tag, err := s.repomanager.Tags(s.db).Create(ctx, &models.Tag{Name: in.Name, Color: in.Color})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, id int64, in TagPatchInput) (*models.Tag, error) {
	in.Name = trimPtr(in.Name)
	in.Color = trimPtr(in.Color)
	if in.Name != nil && *in.Name == "" {
		return nil, validation.Errorf("name is required")
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Tags(s.db)
	if _, err := repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := s.checkName(ctx, *in.Name, id); err != nil {
			return nil, err
		}
	}

	if err := repo.Update(ctx, id, models.TagPatch{Name: in.Name, Color: in.Color}); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return repo.GetByID(ctx, id)
}

// Delete removes the tag and detaches it from every scan.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Tags(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	s.logger.Info(ctx, "tag deleted", "tag_id", id)
	return nil
}

func (s *TagService) checkName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repomanager.Tags(s.db).GetByName(ctx, name)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup tag: %w", err)
	case existing.ID != selfID:
		return fmt.Errorf("%w: tag %q already exists", common.ErrorAlreadyExists, name)
	default:
		return nil
	}
}
