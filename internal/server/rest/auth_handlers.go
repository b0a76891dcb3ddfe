package rest

import (
	"net/http"

	"github.com/dmitrijs2005/scanvault/internal/server/models"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
)

type userResponse struct {
	User models.PublicUser `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "user")
		return
	}

	res, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err, "user")
		return
	}

	res, err := h.users.Login(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	user, err := h.users.Me(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: *user})
}
