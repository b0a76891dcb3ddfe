package rest

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

func TestScans_CreateGetList(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")

	var tag models.Tag
	resp := api.sendJSON(t, http.MethodPost, "/api/v1/tags", token, map[string]string{"name": "metal", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, resp.status)
	resp.decode(t, &tag)

	var project models.Project
	resp = api.sendJSON(t, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": "Engine"})
	require.Equal(t, http.StatusCreated, resp.status)
	resp.decode(t, &project)

	resp = api.sendForm(t, http.MethodPost, "/api/v1/scans", token, map[string]string{
		"object_name":   "Widget",
		"scan_date":     "2024-03-01",
		"scanner_model": "EinScan",
		"project_id":    fmt.Sprint(project.ID),
		"tags":          fmt.Sprintf("[%d]", tag.ID),
	},
		formFile{"file", "widget.stl", "solid widget"},
		formFile{"thumbnail", "thumb.png", pngHeader},
	)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	var created models.Scan
	resp.decode(t, &created)
	assert.Equal(t, "Widget", created.ObjectName)
	assert.Equal(t, "STL", created.FileFormat)
	assert.Equal(t, int64(len("solid widget")), created.FileSize)
	assert.Equal(t, 1, created.CurrentVersion)
	require.NotNil(t, created.ProjectName)
	assert.Equal(t, "Engine", *created.ProjectName)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "metal", created.Tags[0].Name)
	assert.NotNil(t, created.ThumbnailPath)

	resp = api.do(t, http.MethodGet, scanPath(created.ID, ""), token, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	var got models.Scan
	resp.decode(t, &got)
	require.Len(t, got.Versions, 1)
	assert.Equal(t, "Initial upload", *got.Versions[0].ChangeNotes)

	api.createScan(t, token, "bracket.obj", "o bracket", nil)
	api.createScan(t, token, "gear.ply", "ply", map[string]string{"notes": "spare widget gear"})

	var page scanListResponse
	resp = api.do(t, http.MethodGet, "/api/v1/scans?limit=2", token, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	resp.decode(t, &page)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, pagination{Total: 3, Limit: 2, Offset: 0}, page.Pagination)

	resp = api.do(t, http.MethodGet, "/api/v1/scans/search?search=widget", token, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	resp.decode(t, &page)
	assert.Equal(t, int64(2), page.Pagination.Total)

	resp = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/scans?project_id=%d", project.ID), token, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	resp.decode(t, &page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
}

func TestScans_ListEmptyIsArray(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")

	resp := api.do(t, http.MethodGet, "/api/v1/scans", token, nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `"data":[]`)
	assert.Contains(t, string(resp.body), `"limit":50`)
}

func TestScans_CreateErrors(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	api.createScan(t, token, "taken.stl", "solid", nil)

	tests := []struct {
		name   string
		fields map[string]string
		files  []formFile
		status int
		msg    string
	}{
		{"no file", map[string]string{"object_name": "x"}, nil, http.StatusBadRequest, "no file uploaded"},
		{"bad format", nil, []formFile{{"file", "photo.jpg", "x"}}, http.StatusBadRequest,
			"invalid file format. Allowed: stl, ply, step, stp, iges, igs, obj"},
		{"bad date", map[string]string{"scan_date": "01/03/2024"}, []formFile{{"file", "a.stl", "x"}},
			http.StatusBadRequest, "scan_date must be a date in YYYY-MM-DD format"},
		{"bad tags", map[string]string{"tags": "metal"}, []formFile{{"file", "a.stl", "x"}},
			http.StatusBadRequest, "tags must be a JSON array of ids"},
		{"bad project", map[string]string{"project_id": "abc"}, []formFile{{"file", "a.stl", "x"}},
			http.StatusBadRequest, "project_id must be an integer"},
		{"duplicate name", nil, []formFile{{"file", "taken.stl", "x"}}, http.StatusConflict,
			`a scan named "taken" already exists`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.sendForm(t, http.MethodPost, "/api/v1/scans", token, tt.fields, tt.files...)
			assert.Equal(t, tt.status, resp.status, string(resp.body))
			assert.Equal(t, tt.msg, resp.errorMessage(t))
		})
	}

	resp := api.sendJSON(t, http.MethodPost, "/api/v1/scans", token, map[string]string{"object_name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "expected a multipart/form-data body", resp.errorMessage(t))
}

func TestScans_UploadTooLarge(t *testing.T) {
	api := newAPI(t, withMaxUpload(512))
	token := api.register(t, "ada@example.com")

	resp := api.sendForm(t, http.MethodPost, "/api/v1/scans", token, nil,
		formFile{"file", "big.stl", strings.Repeat("x", 4096)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.status)
}

func TestScans_UpdateAndDelete(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	id := api.createScan(t, token, "part.stl", "solid", map[string]string{"notes": "first"})

	var tag models.Tag
	api.sendJSON(t, http.MethodPost, "/api/v1/tags", token, map[string]string{"name": "steel"}).decode(t, &tag)

	resp := api.sendJSON(t, http.MethodPut, scanPath(id, ""), token, map[string]any{
		"object_name": "Part A",
		"notes":       "",
		"tags":        []int64{tag.ID, tag.ID},
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	var scan models.Scan
	resp.decode(t, &scan)
	assert.Equal(t, "Part A", scan.ObjectName)
	assert.Nil(t, scan.Notes)
	require.Len(t, scan.Tags, 1)

	// tags as a JSON string, as some form clients send them
	resp = api.sendJSON(t, http.MethodPut, scanPath(id, ""), token, map[string]any{"tags": "[]"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	resp.decode(t, &scan)
	assert.Empty(t, scan.Tags)

	resp = api.sendJSON(t, http.MethodPut, scanPath(id, ""), token, map[string]any{"filename": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "filename is required", resp.errorMessage(t))

	resp = api.do(t, http.MethodDelete, scanPath(id, ""), token, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.status)
	assert.Empty(t, resp.body)

	resp = api.do(t, http.MethodGet, scanPath(id, ""), token, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "scan not found", resp.errorMessage(t))
}

func TestScans_OwnerOnly(t *testing.T) {
	api := newAPI(t)
	ada := api.register(t, "ada@example.com")
	bob := api.register(t, "bob@example.com")
	id := api.createScan(t, ada, "part.stl", "solid", nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, scanPath(id, "")},
		{http.MethodDelete, scanPath(id, "")},
	} {
		resp := api.do(t, tc.method, tc.path, bob, nil, "")
		assert.Equal(t, http.StatusNotFound, resp.status, tc.method)
	}
	resp := api.sendJSON(t, http.MethodPut, scanPath(id, ""), bob, map[string]string{"notes": "mine"})
	assert.Equal(t, http.StatusNotFound, resp.status)

	var page scanListResponse
	api.do(t, http.MethodGet, "/api/v1/scans", bob, nil, "").decode(t, &page)
	assert.Zero(t, page.Pagination.Total)

	// blob endpoints stay public
	resp = api.do(t, http.MethodGet, scanPath(id, "/file"), "", nil, "")
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestScans_InvalidID(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")

	resp := api.do(t, http.MethodGet, "/api/v1/scans/abc", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, `invalid id: "abc"`, resp.errorMessage(t))
}
