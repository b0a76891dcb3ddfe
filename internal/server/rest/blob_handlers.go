package rest

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/scanvault/internal/server/services"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
)

type fileURLResponse struct {
	URL string `json:"url"`
}

func (h *Handler) scanFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	blob, err := h.scans.OpenFile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	h.stream(w, r, blob, "inline")
}

func (h *Handler) scanDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	blob, err := h.scans.OpenFile(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	h.stream(w, r, blob, "attachment")
}

func (h *Handler) versionDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "version")
		return
	}
	number, err := pathID(r, "version")
	if err != nil {
		h.fail(w, r, err, "version")
		return
	}
	blob, err := h.scans.OpenVersionFile(r.Context(), id, int(number))
	if err != nil {
		h.fail(w, r, err, "version")
		return
	}
	h.stream(w, r, blob, "attachment")
}

func (h *Handler) scanThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "thumbnail")
		return
	}
	blob, err := h.scans.OpenThumbnail(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "thumbnail")
		return
	}

	if blob.ContentType == "" || blob.ContentType == "application/octet-stream" {
		ct, body, err := storage.SniffContentType(blob.Body)
		if err != nil {
			_ = blob.Body.Close()
			h.fail(w, r, err, "thumbnail")
			return
		}
		blob.ContentType = ct
		blob.Body = struct {
			io.Reader
			io.Closer
		}{body, blob.Body}
	}
	h.stream(w, r, blob, "")
}

func (h *Handler) scanFileURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	url, err := h.scans.FileURL(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "file")
		return
	}
	writeJSON(w, http.StatusOK, fileURLResponse{URL: url})
}

// stream copies a blob to the client. disposition is "inline",
// "attachment" or empty for none.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, blob *services.Blob, disposition string) {
	defer func() { _ = blob.Body.Close() }()

	ct := blob.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if blob.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	if disposition != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": blob.Filename}))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn(r.Context(), "stream blob", "filename", blob.Filename, "error", err)
	}
}
