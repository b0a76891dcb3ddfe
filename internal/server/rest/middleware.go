package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/scanvault/internal/common"
	"github.com/dmitrijs2005/scanvault/internal/server/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// identityFrom returns the caller set by authenticate.
func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// authenticate requires a valid "Authorization: Bearer <token>" header and
// stores the caller identity in the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeader), common.BearerPrefix)
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := h.users.VerifyToken(token)
		if err != nil {
			h.fail(w, r, err, "user")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, *id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger writes one line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
