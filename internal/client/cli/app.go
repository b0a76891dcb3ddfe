package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/scanvault/internal/client/client"
	"github.com/dmitrijs2005/scanvault/internal/client/config"
	"github.com/dmitrijs2005/scanvault/internal/client/models"
)

// apiClient is the part of client.APIClient the commands use.
type apiClient interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout()
	Me(ctx context.Context) (*models.User, error)
	Ping(ctx context.Context) error

	ListScans(ctx context.Context, o client.ListOptions) (*models.ScanPage, error)
	GetScan(ctx context.Context, id int64) (*models.Scan, error)
	UploadScan(ctx context.Context, path string, meta client.ScanMeta) (*models.Scan, error)
	UploadVersion(ctx context.Context, id int64, path, changeNotes string) (*models.Scan, error)
	UpdateScan(ctx context.Context, id int64, u client.ScanUpdate) (*models.Scan, error)
	DeleteScan(ctx context.Context, id int64) error
	DownloadScan(ctx context.Context, id int64, dest string) (string, error)

	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, name, description string) (*models.Project, error)
}

type App struct {
	config *config.Config
	api    apiClient
	user   *models.User
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    client.NewAPIClient(c.ServerURL, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) status() string {
	if a.user == nil {
		return ""
	}
	return "(" + a.user.Email + ")"
}

// Run prints a greeting, warns when the server cannot be reached and runs
// the REPL until exit.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "Welcome to scanvault CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)
	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %v\n", err)
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}
