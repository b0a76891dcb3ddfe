package rest

import (
	"net/http"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
)

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	tag, err := h.tags.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var in services.TagInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	tag, err := h.tags.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	var in services.TagPatchInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	tag, err := h.tags.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	if err := h.tags.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var in services.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "project")
		return
	}
	project, err := h.projects.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	var in services.ProjectPatchInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "project")
		return
	}
	project, err := h.projects.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err, "project")
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
