package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/config"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
)

const (
	filesBaseURL = "http://files.test"
	pngHeader    = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"
)

type testAPI struct {
	srv   *httptest.Server
	local *storage.LocalGateway
}

type apiOption func(*Deps, *RouterOptions)

func withMaxUpload(n int64) apiOption {
	return func(d *Deps, _ *RouterOptions) { d.MaxUploadSize = n }
}

func withRateLimit(n int) apiOption {
	return func(_ *Deps, o *RouterOptions) { o.AuthRateLimit = n }
}

func withPing(f func(context.Context) error) apiOption {
	return func(d *Deps, _ *RouterOptions) { d.Ping = f }
}

// newAPI serves the real services over an in-memory SQLite database and a
// local gateway rooted in a temp dir.
func newAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	db := repotest.OpenSQLite(t)
	rm := repomanager.NewSQLiteRepositoryManager()
	local, err := storage.NewLocalGateway(t.TempDir(), filesBaseURL+storage.LocalURLPrefix)
	require.NoError(t, err)

	cfg := &config.Config{SecretKey: "rest-secret", TokenValidity: time.Hour}
	log := logging.NewNop()

	deps := Deps{
		Users:         services.NewUserService(db, rm, cfg, log),
		Scans:         services.NewScanService(db, rm, local, log),
		Tags:          services.NewTagService(db, rm, log),
		Projects:      services.NewProjectService(db, rm, log),
		Ping:          db.PingContext,
		Logger:        log,
		MaxUploadSize: 10 << 20,
	}
	ro := RouterOptions{CORSOrigins: []string{"*"}, LocalRoot: local.Root(), Metrics: NewMetrics()}
	for _, o := range opts {
		o(&deps, &ro)
	}

	srv := httptest.NewServer(NewRouter(NewHandler(deps), ro))
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, local: local}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r *response) errorMessage(t *testing.T) string {
	t.Helper()
	var e errorResponse
	r.decode(t, &e)
	return e.Error
}

func (a *testAPI) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *response {
	t.Helper()

	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return &response{status: resp.StatusCode, header: resp.Header, body: b}
}

func (a *testAPI) sendJSON(t *testing.T, method, path, token string, v any) *response {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return a.do(t, method, path, token, body, "application/json")
}

type formFile struct {
	field, name, content string
}

func (a *testAPI) sendForm(t *testing.T, method, path, token string, fields map[string]string, files ...formFile) *response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return a.do(t, method, path, token, &buf, mw.FormDataContentType())
}

// register creates an account and returns its token.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()
	resp := a.sendJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "secret1", "name": strings.Split(email, "@")[0],
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	var res services.AuthResult
	resp.decode(t, &res)
	return res.Token
}

func (a *testAPI) createScan(t *testing.T, token, filename, content string, fields map[string]string) int64 {
	t.Helper()
	resp := a.sendForm(t, http.MethodPost, "/api/v1/scans", token, fields, formFile{"file", filename, content})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	var scan struct {
		ID int64 `json:"id"`
	}
	resp.decode(t, &scan)
	return scan.ID
}

func scanPath(id int64, suffix string) string {
	return fmt.Sprintf("/api/v1/scans/%d%s", id, suffix)
}
