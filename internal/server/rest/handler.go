// Package rest exposes the scanvault services as a JSON/multipart HTTP API
// under /api/v1.
package rest

import (
	"context"

	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/auth"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Me(ctx context.Context, id auth.Identity) (*models.PublicUser, error)
	VerifyToken(token string) (*auth.Identity, error)
}

type ScanService interface {
	List(ctx context.Context, f models.ScanFilter) (*models.ScanPage, error)
	Get(ctx context.Context, userID, id int64) (*models.Scan, error)
	Create(ctx context.Context, userID int64, in services.CreateScanInput) (*models.Scan, error)
	Update(ctx context.Context, userID, id int64, patch models.ScanPatch) (*models.Scan, error)
	UploadNewVersion(ctx context.Context, userID, id int64, file services.Upload, changeNotes string) (*models.Scan, error)
	SetThumbnail(ctx context.Context, userID, id int64, image services.Upload) (*models.Scan, error)
	Delete(ctx context.Context, userID, id int64) error

	OpenFile(ctx context.Context, id int64) (*services.Blob, error)
	OpenVersionFile(ctx context.Context, id int64, number int) (*services.Blob, error)
	OpenThumbnail(ctx context.Context, id int64) (*services.Blob, error)
	FileURL(ctx context.Context, id int64) (string, error)
}

type TagService interface {
	List(ctx context.Context) ([]models.Tag, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	Create(ctx context.Context, in services.TagInput) (*models.Tag, error)
	Update(ctx context.Context, id int64, in services.TagPatchInput) (*models.Tag, error)
	Delete(ctx context.Context, id int64) error
}

type ProjectService interface {
	List(ctx context.Context) ([]models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, in services.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, id int64, in services.ProjectPatchInput) (*models.Project, error)
	Delete(ctx context.Context, id int64) error
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	users     UserService
	scans     ScanService
	tags      TagService
	projects  ProjectService
	ping      func(context.Context) error
	logger    logging.Logger
	maxUpload int64
}

// Deps are the collaborators of a Handler. Ping reports database health;
// it may be nil.
type Deps struct {
	Users         UserService
	Scans         ScanService
	Tags          TagService
	Projects      ProjectService
	Ping          func(context.Context) error
	Logger        logging.Logger
	MaxUploadSize int64
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:     d.Users,
		scans:     d.Scans,
		tags:      d.Tags,
		projects:  d.Projects,
		ping:      d.Ping,
		logger:    d.Logger.With("module", "rest"),
		maxUpload: d.MaxUploadSize,
	}
}
