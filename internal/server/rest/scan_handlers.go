package rest

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

type pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type scanListResponse struct {
	Data       []models.Scan `json:"data"`
	Pagination pagination    `json:"pagination"`
}

// scanPatchRequest is the JSON body of PUT /scans/{id}. Absent and null
// fields are left unchanged.
type scanPatchRequest struct {
	Filename     *string `json:"filename"`
	ObjectName   *string `json:"object_name"`
	ScanDate     *string `json:"scan_date"`
	Notes        *string `json:"notes"`
	ScannerModel *string `json:"scanner_model"`
	Resolution   *string `json:"resolution"`
	Accuracy     *string `json:"accuracy"`
	ProjectID    *int64  `json:"project_id"`
	CreatedBy    *string `json:"created_by"`
	Tags         *tagIDs `json:"tags"`
}

func (p *scanPatchRequest) patch() models.ScanPatch {
	out := models.ScanPatch{
		Filename:     p.Filename,
		ObjectName:   p.ObjectName,
		ScanDate:     p.ScanDate,
		Notes:        p.Notes,
		ScannerModel: p.ScannerModel,
		Resolution:   p.Resolution,
		Accuracy:     p.Accuracy,
		ProjectID:    p.ProjectID,
		CreatedBy:    p.CreatedBy,
	}
	if p.Tags != nil {
		ids := []int64(*p.Tags)
		out.TagIDs = &ids
	}
	return out
}

func (h *Handler) listScans(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	projectID, err := optionalID(r.URL.Query().Get("project_id"), "project_id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	page, err := h.scans.List(r.Context(), models.ScanFilter{
		UserID:    id.UserID,
		ProjectID: projectID,
		Search:    r.URL.Query().Get("search"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	data := page.Scans
	if data == nil {
		data = []models.Scan{}
	}
	writeJSON(w, http.StatusOK, scanListResponse{
		Data:       data,
		Pagination: pagination{Total: page.Total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (h *Handler) getScan(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	scanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	scan, err := h.scans.Get(r.Context(), id.UserID, scanID)
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (h *Handler) createScan(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	form, err := h.parseMultipart(w, r)
	if err != nil {
		h.failUpload(w, r, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	file, closeFile, err := formUpload(form, "file")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	if file == nil {
		writeErrorMessage(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer closeFile()

	in := services.CreateScanInput{
		File:         *file,
		ObjectName:   formValue(form, "object_name"),
		ScanDate:     formValue(form, "scan_date"),
		Notes:        formValue(form, "notes"),
		ScannerModel: formValue(form, "scanner_model"),
		Resolution:   formValue(form, "resolution"),
		Accuracy:     formValue(form, "accuracy"),
		CreatedBy:    formValue(form, "created_by"),
	}

	thumb, closeThumb, err := formUpload(form, "thumbnail")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	if thumb != nil {
		defer closeThumb()
		in.Thumbnail = thumb
	}

	if in.ProjectID, err = optionalID(formValue(form, "project_id"), "project_id"); err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	if in.TagIDs, err = parseTagIDs(formValue(form, "tags")); err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	scan, err := h.scans.Create(r.Context(), id.UserID, in)
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	writeJSON(w, http.StatusCreated, scan)
}

func (h *Handler) updateScan(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	scanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	var req scanPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	scan, err := h.scans.Update(r.Context(), id.UserID, scanID, req.patch())
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (h *Handler) deleteScan(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	scanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	if err := h.scans.Delete(r.Context(), id.UserID, scanID); err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadVersion(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	scanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	form, err := h.parseMultipart(w, r)
	if err != nil {
		h.failUpload(w, r, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	file, closeFile, err := formUpload(form, "file")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	if file == nil {
		writeErrorMessage(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer closeFile()

	scan, err := h.scans.UploadNewVersion(r.Context(), id.UserID, scanID, *file, formValue(form, "change_notes"))
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (h *Handler) setThumbnail(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	scanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}

	form, err := h.parseMultipart(w, r)
	if err != nil {
		h.failUpload(w, r, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	image, closeImage, err := formUpload(form, "thumbnail")
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	if image == nil {
		writeErrorMessage(w, http.StatusBadRequest, "no thumbnail uploaded")
		return
	}
	defer closeImage()

	scan, err := h.scans.SetThumbnail(r.Context(), id.UserID, scanID, *image)
	if err != nil {
		h.fail(w, r, err, "scan")
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

var errNotMultipart = errors.New("expected a multipart/form-data body")

// parseMultipart limits the body to the configured upload size and parses
// it. The caller must RemoveAll the returned form.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errNotMultipart
		}
		return nil, err
	}
	return r.MultipartForm, nil
}

func (h *Handler) failUpload(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeErrorMessage(w, http.StatusRequestEntityTooLarge,
			"upload exceeds the limit of "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
	case errors.Is(err, errNotMultipart):
		writeErrorMessage(w, http.StatusBadRequest, errNotMultipart.Error())
	default:
		h.logger.Warn(r.Context(), "parse multipart", "error", err)
		writeErrorMessage(w, http.StatusBadRequest, "malformed multipart body")
	}
}

func formValue(form *multipart.Form, name string) string {
	if v := form.Value[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formUpload opens the first file of field name. It returns a nil Upload
// when the field is absent.
func formUpload(form *multipart.Form, name string) (*services.Upload, func(), error) {
	files := form.File[name]
	if len(files) == 0 {
		return nil, func() {}, nil
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", common.ErrorInternal, name, err)
	}
	return &services.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
