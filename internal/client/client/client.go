package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/scanvault/internal/client/models"
	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/filex"
	"github.com/dmitrijs2005/scanvault/internal/netx"
)

type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient returns a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account and keeps its token.
func (c *APIClient) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	var res authResponse
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res.User, nil
}

// Login authenticates and keeps the returned token.
func (c *APIClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var res authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res.User, nil
}

func (c *APIClient) Logout() {
	c.SetToken("")
}

func (c *APIClient) Me(ctx context.Context) (*models.User, error) {
	var res struct {
		User models.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Ping checks the server's health endpoint.
func (c *APIClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

type ListOptions struct {
	Search    string
	ProjectID int64
	Limit     int
	Offset    int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.ProjectID > 0 {
		q.Set("project_id", strconv.FormatInt(o.ProjectID, 10))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *APIClient) ListScans(ctx context.Context, o ListOptions) (*models.ScanPage, error) {
	var page models.ScanPage
	if err := c.doJSON(ctx, http.MethodGet, "/scans"+o.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *APIClient) GetScan(ctx context.Context, id int64) (*models.Scan, error) {
	var s models.Scan
	if err := c.doJSON(ctx, http.MethodGet, scanPath(id, ""), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ScanMeta are the optional fields of a new scan.
type ScanMeta struct {
	ObjectName    string
	ScanDate      string
	Notes         string
	ScannerModel  string
	Resolution    string
	Accuracy      string
	CreatedBy     string
	ProjectID     int64
	TagIDs        []int64
	ThumbnailPath string
}

func (m ScanMeta) fields() map[string]string {
	f := map[string]string{}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			f[k] = v
		}
	}
	set("object_name", m.ObjectName)
	set("scan_date", m.ScanDate)
	set("notes", m.Notes)
	set("scanner_model", m.ScannerModel)
	set("resolution", m.Resolution)
	set("accuracy", m.Accuracy)
	set("created_by", m.CreatedBy)
	if m.ProjectID > 0 {
		f["project_id"] = strconv.FormatInt(m.ProjectID, 10)
	}
	if len(m.TagIDs) > 0 {
		b, _ := json.Marshal(m.TagIDs)
		f["tags"] = string(b)
	}
	return f
}

// UploadScan streams the file at path as a new scan.
func (c *APIClient) UploadScan(ctx context.Context, path string, meta ScanMeta) (*models.Scan, error) {
	files := []netx.FilePart{{Field: "file", Path: path}}
	if meta.ThumbnailPath != "" {
		files = append(files, netx.FilePart{Field: "thumbnail", Path: meta.ThumbnailPath})
	}

	var s models.Scan
	if err := c.doMultipart(ctx, http.MethodPost, "/scans", meta.fields(), files, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UploadVersion streams the file at path as the next version of scan id.
func (c *APIClient) UploadVersion(ctx context.Context, id int64, path, changeNotes string) (*models.Scan, error) {
	fields := map[string]string{}
	if changeNotes != "" {
		fields["change_notes"] = changeNotes
	}

	var s models.Scan
	files := []netx.FilePart{{Field: "file", Path: path}}
	if err := c.doMultipart(ctx, http.MethodPost, scanPath(id, "/versions"), fields, files, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ScanUpdate is a partial update; nil fields are not sent. An empty string
// clears an optional field, ProjectID 0 clears the project.
type ScanUpdate struct {
	ObjectName   *string  `json:"object_name,omitempty"`
	ScanDate     *string  `json:"scan_date,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	ScannerModel *string  `json:"scanner_model,omitempty"`
	Resolution   *string  `json:"resolution,omitempty"`
	Accuracy     *string  `json:"accuracy,omitempty"`
	CreatedBy    *string  `json:"created_by,omitempty"`
	ProjectID    *int64   `json:"project_id,omitempty"`
	TagIDs       *[]int64 `json:"tags,omitempty"`
}

func (c *APIClient) UpdateScan(ctx context.Context, id int64, u ScanUpdate) (*models.Scan, error) {
	var s models.Scan
	if err := c.doJSON(ctx, http.MethodPut, scanPath(id, ""), u, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *APIClient) DeleteScan(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, scanPath(id, ""), nil, nil)
}

// DownloadScan saves the current file of scan id. When dest is a directory
// the server-provided file name is used inside it. It returns the written
// path.
func (c *APIClient) DownloadScan(ctx context.Context, id int64, dest string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, scanPath(id, "/download"), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return "", err
	}

	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		dest = filepath.Join(dest, downloadName(resp.Header.Get("Content-Disposition"), id))
	}

	err = filex.WriteFileAtomic(dest, func(f *os.File) error {
		_, err := io.Copy(f, resp.Body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", dest, err)
	}
	return dest, nil
}

func downloadName(disposition string, id int64) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return fmt.Sprintf("scan-%d", id)
}

func (c *APIClient) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.doJSON(ctx, http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag adds a tag; an empty color selects the server default.
func (c *APIClient) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	body := map[string]string{"name": name}
	if color != "" {
		body["color"] = color
	}
	var t models.Tag
	if err := c.doJSON(ctx, http.MethodPost, "/tags", body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *APIClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *APIClient) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	var p models.Project
	body := map[string]string{"name": name, "description": description}
	if err := c.doJSON(ctx, http.MethodPost, "/projects", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPath(id int64, suffix string) string {
	return "/scans/" + strconv.FormatInt(id, 10) + suffix
}

// newRequest builds a request for an API path and attaches the token.
func (c *APIClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+common.APIPrefix+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}
	return req, nil
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *APIClient) doMultipart(ctx context.Context, method, path string, fields map[string]string, files []netx.FilePart, out any) error {
	req, err := netx.NewMultipartRequest(ctx, method, c.baseURL+common.APIPrefix+path, fields, files)
	if err != nil {
		return err
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkResponse turns a non-2xx response into an *APIError.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var e struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(b))
	}
	return &APIError{Status: resp.StatusCode, Message: e.Error}
}
