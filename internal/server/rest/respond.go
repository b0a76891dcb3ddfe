package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/scanvault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// publicMessage strips the sentinel prefix added by "%w: detail" wrapping.
func publicMessage(err, sentinel error, fallback string) string {
	msg := err.Error()
	if msg == sentinel.Error() {
		return fallback
	}
	if detail, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return detail
	}
	return msg
}

// fail maps err to a status code and writes it. resource names the thing a
// 404 is about ("scan", "tag"). Unexpected errors are logged and reported
// as a bare 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, resource string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeErrorMessage(w, http.StatusBadRequest, publicMessage(err, common.ErrorValidation, "invalid request"))
	case errors.Is(err, common.ErrorNotFound):
		writeErrorMessage(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeErrorMessage(w, http.StatusConflict, publicMessage(err, common.ErrorAlreadyExists, resource+" already exists"))
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeErrorMessage(w, http.StatusUnauthorized, common.ErrorInvalidCredentials.Error())
	case errors.Is(err, common.ErrTokenExpired):
		writeErrorMessage(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
	default:
		h.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err.Error())
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", common.ErrorValidation)
		}
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}
