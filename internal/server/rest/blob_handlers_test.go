package rest

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
)

func TestBlobs_FileDownloadAndVersions(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	id := api.createScan(t, token, "part.stl", "solid v1", nil)

	resp := api.do(t, http.MethodGet, scanPath(id, "/file"), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "solid v1", string(resp.body))
	assert.Equal(t, `inline; filename=part.stl`, resp.header.Get("Content-Disposition"))

	resp = api.sendForm(t, http.MethodPost, scanPath(id, "/versions"), token,
		map[string]string{"change_notes": "cleaned mesh"},
		formFile{"file", "part-fixed.stl", "solid v2"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	var scan models.Scan
	resp.decode(t, &scan)
	assert.Equal(t, 2, scan.CurrentVersion)
	require.Len(t, scan.Versions, 2)

	resp = api.do(t, http.MethodGet, scanPath(id, "/download"), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "solid v2", string(resp.body))
	assert.Equal(t, `attachment; filename=part.stl`, resp.header.Get("Content-Disposition"))
	assert.Equal(t, "8", resp.header.Get("Content-Length"))

	resp = api.do(t, http.MethodGet, scanPath(id, "/versions/1/download"), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "solid v1", string(resp.body))
	assert.Equal(t, `attachment; filename=part_v1.stl`, resp.header.Get("Content-Disposition"))

	resp = api.do(t, http.MethodGet, scanPath(id, "/versions/9/download"), "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "version not found", resp.errorMessage(t))
}

func TestBlobs_VersionUploadErrors(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	id := api.createScan(t, token, "part.stl", "solid", nil)

	resp := api.sendForm(t, http.MethodPost, scanPath(id, "/versions"), token, map[string]string{"change_notes": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "no file uploaded", resp.errorMessage(t))

	resp = api.sendForm(t, http.MethodPost, scanPath(id, "/versions"), token, nil, formFile{"file", "part.exe", "MZ"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = api.sendForm(t, http.MethodPost, scanPath(id, "/versions"), "", nil, formFile{"file", "part.stl", "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestBlobs_FileURLServedFromUploads(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	id := api.createScan(t, token, "part.obj", "o part", nil)

	resp := api.do(t, http.MethodGet, scanPath(id, "/file-url"), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	var out fileURLResponse
	resp.decode(t, &out)
	require.True(t, strings.HasPrefix(out.URL, filesBaseURL+"/uploads/scans/"), out.URL)

	resp = api.do(t, http.MethodGet, strings.TrimPrefix(out.URL, filesBaseURL), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "o part", string(resp.body))

	resp = api.do(t, http.MethodGet, "/uploads/scans/", "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestBlobs_Thumbnail(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "ada@example.com")
	id := api.createScan(t, token, "part.stl", "solid", nil)

	resp := api.do(t, http.MethodGet, scanPath(id, "/thumbnail"), "", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "thumbnail not found", resp.errorMessage(t))

	resp = api.sendForm(t, http.MethodPut, scanPath(id, "/thumbnail"), token, nil, formFile{"thumbnail", "t.txt", "not an image"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = api.sendForm(t, http.MethodPut, scanPath(id, "/thumbnail"), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "no thumbnail uploaded", resp.errorMessage(t))

	resp = api.sendForm(t, http.MethodPut, scanPath(id, "/thumbnail"), token, nil, formFile{"thumbnail", "t.png", pngHeader})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = api.do(t, http.MethodGet, scanPath(id, "/thumbnail"), "", nil, "")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "image/png", resp.header.Get("Content-Type"))
	assert.Equal(t, pngHeader, string(resp.body))
	assert.Empty(t, resp.header.Get("Content-Disposition"))
}

func TestBlobs_UnknownScan(t *testing.T) {
	api := newAPI(t)

	for _, suffix := range []string{"/file", "/download", "/file-url", "/thumbnail"} {
		resp := api.do(t, http.MethodGet, scanPath(404, suffix), "", nil, "")
		assert.Equal(t, http.StatusNotFound, resp.status, suffix)
	}
}
